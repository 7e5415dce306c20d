// ABOUTME: Audio source package for decoding files and streams to PCM
// ABOUTME: Provides the Source interface and MP3, FLAC, WAV, HTTP and tone sources
// Package decode turns audio files and streams into PCM byte readers.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), WAV (go-audio/wav),
// MP3 over HTTP, and a generated sine tone.
//
// Every source is an io.Reader of interleaved little-endian PCM in the
// format reported by Format(). Sources never convert sample rate or bit
// depth beyond what the container requires.
//
// Example:
//
//	src, err := decode.NewSource("song.flac")
//	chunk := make([]byte, src.Format().BytesPerSecond())
//	n, err := io.ReadFull(src, chunk)
package decode
