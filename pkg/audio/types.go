// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM format and sample packing helpers
package audio

import (
	"fmt"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes an interleaved little-endian PCM stream
type Format struct {
	Codec      string // codec the PCM was decoded from ("mp3", "flac", "wav", "pcm")
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerSample returns the storage size of a single sample
func (f Format) BytesPerSample() int {
	return (f.BitDepth + 7) / 8
}

// FrameSize returns the size of one frame (one sample per channel) in bytes
func (f Format) FrameSize() int {
	return f.Channels * f.BytesPerSample()
}

// BytesPerSecond returns the number of bytes in one second of audio.
// Playback chunks are exactly this long.
func (f Format) BytesPerSecond() int {
	return f.Channels * f.SampleRate * f.BitDepth / 8
}

// Duration returns the play time of the given number of frames
func (f Format) Duration(frames int64) time.Duration {
	if f.SampleRate <= 0 || frames < 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// Validate reports whether the format can be played at all
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", f.Channels)
	}
	switch f.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24, 32)", f.BitDepth)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%s %dHz %dch %d-bit", f.Codec, f.SampleRate, f.Channels, f.BitDepth)
}

// SampleTo24Bit converts int32 to 24-bit packed bytes (little-endian)
func SampleTo24Bit(sample int32) [3]byte {
	return [3]byte{
		byte(sample),
		byte(sample >> 8),
		byte(sample >> 16),
	}
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// PutSample writes one sample of the given bit depth into dst (little-endian).
// 8-bit PCM is unsigned, as in WAV files.
func PutSample(dst []byte, sample int32, bitDepth int) {
	switch bitDepth {
	case 8:
		dst[0] = byte(sample + 128)
	case 16:
		dst[0] = byte(sample)
		dst[1] = byte(sample >> 8)
	case 24:
		b := SampleTo24Bit(sample)
		copy(dst, b[:])
	case 32:
		dst[0] = byte(sample)
		dst[1] = byte(sample >> 8)
		dst[2] = byte(sample >> 16)
		dst[3] = byte(sample >> 24)
	}
}

// Sample reads one sample of the given bit depth from src (little-endian)
func Sample(src []byte, bitDepth int) int32 {
	switch bitDepth {
	case 8:
		return int32(src[0]) - 128
	case 16:
		return int32(int16(uint16(src[0]) | uint16(src[1])<<8))
	case 24:
		return SampleFrom24Bit([3]byte{src[0], src[1], src[2]})
	case 32:
		return int32(uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16 | uint32(src[3])<<24)
	}
	return 0
}
