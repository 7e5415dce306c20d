// ABOUTME: Playback session lifecycle
// ABOUTME: Starts producer and consumer, waits for both and releases the devices
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/chunkstream/pkg/audio/decode"
	"github.com/Resonate-Protocol/chunkstream/pkg/audio/output"
	"github.com/Resonate-Protocol/chunkstream/pkg/buffer"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrStopped is returned by Play when Stop was called before playback began
var ErrStopped = errors.New("session stopped")

// ErrAlreadyStarted is returned by a second call to Play
var ErrAlreadyStarted = errors.New("session already started")

// Config holds session configuration
type Config struct {
	// Source supplies interleaved PCM
	Source decode.Source

	// Sink plays the PCM
	Sink output.Sink

	// Capacity is the number of one-second chunks buffered (default: 10)
	Capacity int

	// OnMessage is called with human-readable progress lines
	OnMessage func(string)

	// OnStats is called after every insert and remove
	OnStats func(buffer.Stats)
}

// queue is the part of buffer.Bounded the producer and consumer use
type queue interface {
	Insert(ctx context.Context, chunk []byte) error
	Remove(ctx context.Context) ([]byte, error)
	IOEven() bool
	CloseInput()
	Reset()
	Stats() buffer.Stats
}

// Session plays one source to one sink
type Session struct {
	id     string
	config Config
	q      queue

	chunkSize int

	playing  atomic.Bool
	finished atomic.Bool
	stopped  atomic.Bool
	started  atomic.Bool

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	logger   *log.Entry
}

// New creates a session. The source and sink are owned by the session from
// here on and released when Play returns.
func New(config Config) *Session {
	if config.Capacity <= 0 {
		config.Capacity = buffer.DefaultCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()

	return &Session{
		id:     id,
		config: config,
		q:      buffer.New(config.Capacity),
		ctx:    ctx,
		cancel: cancel,
		logger: log.WithField("session", id),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Play opens the sink, runs the producer and consumer until the source is
// drained or Stop is called, then releases the source and sink.
func (s *Session) Play(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer s.closeSource()

	if s.stopped.Load() {
		s.message("Session stopped before playback")
		return ErrStopped
	}

	src := s.config.Source
	format := src.Format()
	if err := format.Validate(); err != nil {
		return fmt.Errorf("invalid source format: %w", err)
	}
	s.chunkSize = format.BytesPerSecond()
	if s.chunkSize <= 0 {
		return fmt.Errorf("invalid chunk size %d for %s", s.chunkSize, format)
	}

	s.message(fmt.Sprintf("Playing: %s", src.Title()))
	s.message(fmt.Sprintf("Format: %s", format))
	if frames := src.Frames(); frames >= 0 {
		seconds := frames * int64(format.FrameSize()) / int64(s.chunkSize)
		s.message(fmt.Sprintf("Duration: %d seconds", seconds))
	}

	sink := s.config.Sink
	if err := sink.Open(format); err != nil {
		s.message(fmt.Sprintf("Cannot open output: %v", err))
		return fmt.Errorf("failed to open output: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			s.logger.WithError(err).Warn("output close error")
		}
	}()
	if err := sink.Start(); err != nil {
		return fmt.Errorf("failed to start output: %w", err)
	}

	s.playing.Store(true)
	// Stop may have landed while the device was opening
	if s.stopped.Load() {
		s.playing.Store(false)
	}

	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	stopWatch := context.AfterFunc(ctx, s.Stop)
	defer stopWatch()

	s.logger.WithField("bytes", s.chunkSize).Infof("Session started: %s", format)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return s.produce(gctx) })
	g.Go(func() error { return s.consume(gctx) })
	runErr := g.Wait()

	s.playing.Store(false)

	if s.stopped.Load() {
		// both loops have returned, nothing else touches the buffer
		s.q.Reset()
		s.publishStats()
	} else if runErr == nil {
		if err := sink.Drain(); err != nil {
			s.logger.WithError(err).Warn("output drain error")
		}
	}
	if err := sink.Stop(); err != nil {
		s.logger.WithError(err).Warn("output stop error")
	}

	s.message("Session finished")
	return runErr
}

// Stop halts playback and wakes any goroutine blocked on the buffer.
// It is safe to call from any goroutine, any number of times.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.stopped.Store(true)
		s.playing.Store(false)
		s.cancel()
		s.logger.Info("Session stop requested")
	})
}

// IsPlaying reports whether the loops are allowed to continue
func (s *Session) IsPlaying() bool {
	return s.playing.Load()
}

// Stopped reports whether Stop has been called
func (s *Session) Stopped() bool {
	return s.stopped.Load()
}

// IsDrainedAndDone reports that the producer has finished and every
// inserted chunk has been removed.
func (s *Session) IsDrainedAndDone() bool {
	// load finished first so an insert made just before it was set is
	// already counted by IOEven
	done := s.finished.Load()
	return done && s.q.IOEven()
}

// Stats returns the buffer counters
func (s *Session) Stats() buffer.Stats {
	return s.q.Stats()
}

func (s *Session) closeSource() {
	if err := s.config.Source.Close(); err != nil {
		s.logger.WithError(err).Warn("source close error")
	}
}

func (s *Session) message(msg string) {
	s.logger.Info(msg)
	if s.config.OnMessage != nil {
		s.config.OnMessage(msg)
	}
}

func (s *Session) publishStats() {
	if s.config.OnStats != nil {
		s.config.OnStats(s.q.Stats())
	}
}
