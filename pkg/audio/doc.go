// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and the PCM byte packing helpers used by sources and sinks
// Package audio provides the PCM format description shared by every source
// and sink in chunkstream.
//
// A Format describes interleaved little-endian PCM:
//   - FrameSize: bytes for one sample across all channels
//   - BytesPerSecond: the length of one playback chunk
//
// It also provides helpers for packing integer samples into PCM bytes at
// 8, 16, 24 and 32 bits per sample.
//
// Example:
//
//	format := audio.Format{
//	    Codec:      "pcm",
//	    SampleRate: 44100,
//	    Channels:   2,
//	    BitDepth:   16,
//	}
//
//	chunk := make([]byte, format.BytesPerSecond()) // 176400 bytes
package audio
