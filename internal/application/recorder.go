package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/social-accounts-cli/internal/domain"
	"github.com/bnema/social-accounts-cli/internal/ports"
	"go.uber.org/zap"
)

const defaultRecorderBuffer = 64

var _ ports.ResultSink = (*Recorder)(nil)

type recordedResult struct {
	post       *domain.PostResult
	engagement *domain.EngagementResult
}

// Recorder forwards results to a sink from a single goroutine. Record calls
// never block; results are dropped when the buffer is full.
type Recorder struct {
	sink         ports.ResultSink
	logger       *zap.Logger
	writeTimeout time.Duration

	mu      sync.RWMutex
	closed  bool
	queue   chan recordedResult
	done    chan struct{}
	dropped atomic.Int64
	once    sync.Once
}

func NewRecorder(sink ports.ResultSink, buffer int, logger *zap.Logger) *Recorder {
	if sink == nil {
		sink = ports.NopResultSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer < 1 {
		buffer = defaultRecorderBuffer
	}

	r := &Recorder{
		sink:         sink,
		logger:       logger.Named("recorder"),
		writeTimeout: 5 * time.Second,
		queue:        make(chan recordedResult, buffer),
		done:         make(chan struct{}),
	}
	go r.run()
	return r
}

func (r *Recorder) RecordPost(_ context.Context, result domain.PostResult) error {
	r.enqueue(recordedResult{post: &result}, result.AccountID)
	return nil
}

func (r *Recorder) RecordEngagement(_ context.Context, result domain.EngagementResult) error {
	r.enqueue(recordedResult{engagement: &result}, result.AccountID)
	return nil
}

func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) enqueue(item recordedResult, id domain.AccountID) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		r.logger.Warn("recorder closed, dropping result", zap.String("account", string(id)))
		return
	}

	select {
	case r.queue <- item:
	default:
		r.dropped.Add(1)
		r.logger.Warn("result buffer full, dropping result", zap.String("account", string(id)))
	}
}

func (r *Recorder) run() {
	defer close(r.done)

	for item := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		var err error
		switch {
		case item.post != nil:
			err = r.sink.RecordPost(ctx, *item.post)
		case item.engagement != nil:
			err = r.sink.RecordEngagement(ctx, *item.engagement)
		}
		cancel()
		if err != nil {
			r.logger.Warn("write result failed", zap.Error(err))
		}
	}
}

// Close stops accepting results and waits for the buffer to drain until ctx
// is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.once.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.queue)
		r.mu.Unlock()
	})

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain results: %w", ctx.Err())
	}
}
