package retry

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/utils"
)

// Producer yields fragments of a streamed response. Recv returns io.EOF
// once the sequence is complete. Close releases the underlying channel and
// must be safe to call after Recv returned an error.
type Producer interface {
	Recv() (string, error)
	Close() error
}

// Factory creates a fresh Producer. It is invoked once per attempt, so a
// retried setup always starts from a brand-new sequence.
type Factory func(context.Context) (Producer, error)

type streamState int

const (
	stateNotStarted streamState = iota
	stateStreaming
	stateDone
)

// Stream wraps a Factory with setup retries. Failures before the first
// fragment has been delivered are retried per the Config; once anything has
// reached the consumer, failures propagate immediately so the consumer can
// never observe duplicate fragments. Stream itself implements Producer.
type Stream struct {
	ctx       context.Context
	cfg       Config
	logger    *zap.Logger
	retryable func(error) bool
	factory   Factory

	state   streamState
	attempt int
	inner   Producer
}

// NewStream builds a retrying stream over factory. No attempt is made until
// the first Recv call.
func NewStream(ctx context.Context, cfg Config, logger *zap.Logger, retryable func(error) bool, factory Factory) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Stream{
		ctx:       ctx,
		cfg:       cfg,
		logger:    logger,
		retryable: retryable,
		factory:   factory,
	}
}

// Recv returns the next fragment, transparently opening and, while nothing
// has been delivered yet, re-opening the underlying producer.
func (s *Stream) Recv() (string, error) {
	if s.state == stateDone {
		return "", io.EOF
	}

	for {
		if s.inner == nil {
			producer, err := s.factory(s.ctx)
			if err != nil {
				if retryErr := s.backoff(err); retryErr != nil {
					s.state = stateDone
					return "", retryErr
				}
				continue
			}
			s.inner = producer
		}

		fragment, err := s.inner.Recv()
		if err == nil {
			s.state = stateStreaming
			return fragment, nil
		}

		if errors.Is(err, io.EOF) {
			s.state = stateDone
			s.closeInner()
			return "", io.EOF
		}

		s.closeInner()

		if s.state == stateStreaming {
			// Fragments already reached the consumer. Retrying would
			// re-deliver them, so the failure surfaces as-is.
			s.state = stateDone
			return "", err
		}

		if retryErr := s.backoff(err); retryErr != nil {
			s.state = stateDone
			return "", retryErr
		}
	}
}

// backoff consumes one attempt. It returns nil when another attempt should
// be made, the original cause when it is not retryable or attempts are
// exhausted, and ctx.Err() when the wait was canceled.
func (s *Stream) backoff(cause error) error {
	if s.retryable == nil || !s.retryable(cause) {
		return cause
	}

	s.attempt++
	if s.attempt >= s.cfg.MaxAttempts {
		return cause
	}

	delay := s.cfg.Delay(s.attempt - 1)
	s.logger.Warn("transient failure before first fragment, retrying stream",
		zap.Int("attempt", s.attempt),
		zap.Int("max_attempts", s.cfg.MaxAttempts),
		zap.Duration("delay", delay),
		zap.Error(cause),
	)

	return utils.WaitFor(s.ctx, delay)
}

func (s *Stream) closeInner() {
	if s.inner == nil {
		return
	}

	if err := s.inner.Close(); err != nil {
		s.logger.Warn("closing stream producer", zap.Error(err))
	}
	s.inner = nil
}

// Close releases the currently open producer. It is how a consumer abandons
// the sequence early and is safe to call more than once. The producer's
// close error is returned as-is; it is never retried.
func (s *Stream) Close() error {
	s.state = stateDone

	if s.inner == nil {
		return nil
	}

	inner := s.inner
	s.inner = nil
	return inner.Close()
}
