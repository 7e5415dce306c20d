// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo with a blocking ring buffer feeding the device callback
package output

import (
	"fmt"
	"time"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio"
	"github.com/gen2brain/malgo"
	log "github.com/sirupsen/logrus"
)

// ringDuration is how much audio the callback ring holds
const ringDuration = 500 * time.Millisecond

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	format   audio.Format
	ring     *byteRing
	ready    bool
}

// NewMalgo creates a new Malgo output
func NewMalgo() *Malgo {
	return &Malgo{}
}

// Open initializes the playback device with the given format
func (m *Malgo) Open(format audio.Format) error {
	if err := format.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var deviceFormat malgo.FormatType
	switch format.BitDepth {
	case 8:
		deviceFormat = malgo.FormatU8
	case 16:
		deviceFormat = malgo.FormatS16
	case 24:
		deviceFormat = malgo.FormatS24
	case 32:
		deviceFormat = malgo.FormatS32
	default:
		return unsupported("malgo", format)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	m.malgoCtx = ctx

	bufferBytes := int(time.Duration(format.BytesPerSecond()) * ringDuration / time.Second)
	bufferBytes -= bufferBytes % format.FrameSize()
	m.ring = newByteRing(bufferBytes, silenceFor(format.BitDepth))

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = deviceFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.ring.Read(pOutput[:int(frameCount)*format.FrameSize()])
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		m.freeContext()
		return fmt.Errorf("%w: failed to initialize playback device: %v", ErrUnsupportedFormat, err)
	}

	m.device = device
	m.format = format
	m.ready = true

	log.Printf("Audio output initialized: %s (malgo/%s)", format, formatName(deviceFormat))

	return nil
}

// Start starts the device callback
func (m *Malgo) Start() error {
	if !m.ready {
		return ErrNotOpen
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

// Write queues PCM bytes, blocking while the ring is full
func (m *Malgo) Write(p []byte) (int, error) {
	if !m.ready {
		return 0, ErrNotOpen
	}
	return m.ring.Write(p)
}

// Drain waits until the callback has consumed the ring
func (m *Malgo) Drain() error {
	if !m.ready {
		return ErrNotOpen
	}
	m.ring.WaitEmpty()
	return nil
}

// Stop stops the device
func (m *Malgo) Stop() error {
	if !m.ready {
		return ErrNotOpen
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("device stop failed: %w", err)
	}
	return nil
}

// Close releases output resources
func (m *Malgo) Close() error {
	if m.ring != nil {
		m.ring.Close()
	}
	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	m.freeContext()
	m.ready = false
	return nil
}

func (m *Malgo) freeContext() {
	if m.malgoCtx == nil {
		return
	}
	if err := m.malgoCtx.Uninit(); err != nil {
		log.WithError(err).Warn("malgo context uninit error")
	}
	m.malgoCtx.Free()
	m.malgoCtx = nil
}

// formatName returns human-readable format name
// silenceFor returns the byte that encodes zero amplitude. 8-bit PCM is
// unsigned with its midpoint at 0x80; wider depths are signed.
func silenceFor(bitDepth int) byte {
	if bitDepth == 8 {
		return 0x80
	}
	return 0
}

func formatName(format malgo.FormatType) string {
	switch format {
	case malgo.FormatU8:
		return "U8"
	case malgo.FormatS16:
		return "S16"
	case malgo.FormatS24:
		return "S24"
	case malgo.FormatS32:
		return "S32"
	default:
		return fmt.Sprintf("Unknown(%d)", format)
	}
}
