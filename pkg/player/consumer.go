// ABOUTME: Consumer loop
// ABOUTME: Removes chunks from the buffer and writes them to the output sink
package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/chunkstream/pkg/buffer"
)

// consume removes chunks while the session is playing and the buffer still
// has data to give. The predicate is checked before every Remove so no
// remove is attempted once the producer is done and the buffer is empty.
func (s *Session) consume(ctx context.Context) error {
	defer s.message("Consumer finished")

	logger := s.logger.WithField("component", "consumer")
	sink := s.config.Sink

	var count int
	for s.playing.Load() && !s.IsDrainedAndDone() {
		chunk, err := s.q.Remove(ctx)
		if err != nil {
			if !errors.Is(err, buffer.ErrDrained) && ctx.Err() == nil {
				logger.WithError(err).Warn("remove failed")
			}
			return nil
		}
		count++
		s.publishStats()

		if len(chunk) == 0 {
			continue
		}
		if _, err := sink.Write(chunk); err != nil {
			logger.WithError(err).WithField("chunk", count).Error("output write failed")
			return fmt.Errorf("output write failed: %w", err)
		}
		logger.WithField("chunk", count).WithField("bytes", len(chunk)).Debug("chunk played")
	}
	return nil
}
