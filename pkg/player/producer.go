// ABOUTME: Producer loop
// ABOUTME: Reads fixed-size chunks from the source and inserts them into the buffer
package player

import (
	"context"
	"errors"
	"io"
)

// produce reads chunks until the source ends or the session stops.
// The final chunk may be short or empty; it is inserted regardless.
func (s *Session) produce(ctx context.Context) error {
	defer func() {
		s.finished.Store(true)
		s.q.CloseInput()
		s.message("Producer finished")
	}()

	logger := s.logger.WithField("component", "producer")
	src := s.config.Source

	var count int
	for more := true; more && s.playing.Load(); {
		chunk := make([]byte, s.chunkSize)
		n, err := io.ReadFull(src, chunk)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			more = false
		default:
			logger.WithError(err).Warn("source read failed, treating as end of stream")
			more = false
		}

		if err := s.q.Insert(ctx, chunk[:n]); err != nil {
			logger.WithError(err).Debug("insert abandoned")
			return nil
		}
		count++
		logger.WithField("chunk", count).WithField("bytes", n).Debug("chunk inserted")
		s.publishStats()
	}
	return nil
}
