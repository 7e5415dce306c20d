// ABOUTME: Audio output package for playing PCM chunks
// ABOUTME: Provides the Sink interface with oto, malgo, PortAudio, WAV file and null backends
// Package output provides audio playback sinks.
//
// A Sink receives interleaved little-endian PCM bytes in the format it was
// opened with. Write may block until the device has room. The lifecycle is
// Open, Start, Write..., Drain, Stop, Close.
//
// Backends: oto (default), malgo (miniaudio), PortAudio (build with
// -tags portaudio), a WAV file writer and a null sink.
//
// Example:
//
//	sink, err := output.New("oto", "")
//	err = sink.Open(format)
//	err = sink.Start()
//	_, err = sink.Write(chunk)
package output
