// Package sequencer drives watermark generation for one product-editing
// session: single-item generation, delayed best-effort auto-generation and a
// throttled bulk run over every record still missing a watermark.
package sequencer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wb-go/wbf/zlog"
)

type State int

const (
	StateIdle State = iota
	StateGeneratingOne
	StateGeneratingBulk
)

func (s State) String() string {
	switch s {
	case StateGeneratingOne:
		return "generating_one"
	case StateGeneratingBulk:
		return "generating_bulk"
	default:
		return "idle"
	}
}

const (
	// DefaultAutoDelay lets the surface that triggered the append settle
	// before the best-effort generation fires.
	DefaultAutoDelay = 500 * time.Millisecond
	// DefaultBulkDelay is the fixed pacing between bulk items. It exists as
	// backpressure against the rendering backend, not for correctness.
	DefaultBulkDelay = time.Second
)

// GenerateFunc performs the full render-and-persist round trip for the record
// at the given index.
type GenerateFunc func(ctx context.Context, index int) error

// ProgressFunc observes bulk progress after every processed item.
type ProgressFunc func(done, total int)

// Summary is the outcome of a bulk run.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type Sequencer struct {
	mu         sync.Mutex
	bulkActive bool
	oneActive  int

	autoDelay time.Duration
	bulkDelay time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *zlog.Zerolog
}

type Option func(*Sequencer)

// WithDelays overrides the auto and bulk pacing delays; tests shrink them.
func WithDelays(auto, bulk time.Duration) Option {
	return func(s *Sequencer) {
		s.autoDelay = auto
		s.bulkDelay = bulk
	}
}

func New(logger *zlog.Zerolog, opts ...Option) *Sequencer {
	s := &Sequencer{
		autoDelay: DefaultAutoDelay,
		bulkDelay: DefaultBulkDelay,
		sleep:     sleepCtx,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State reports the current machine state. Bulk takes precedence over
// concurrently running single-item generations.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.bulkActive:
		return StateGeneratingBulk
	case s.oneActive > 0:
		return StateGeneratingOne
	default:
		return StateIdle
	}
}

// GenerateOne runs the round trip for a single record. Concurrent calls for
// different indices are permitted; the sequencer does not serialize unrelated
// single-item requests.
func (s *Sequencer) GenerateOne(ctx context.Context, index int, generate GenerateFunc) error {
	s.mu.Lock()
	s.oneActive++
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.oneActive--
		s.mu.Unlock()
	}()

	if err := generate(ctx, index); err != nil {
		return fmt.Errorf("generate watermark for record %d: %w", index, err)
	}
	return nil
}

// AutoGenerate fires a delayed, best-effort generation for a freshly added
// record. hasWatermark short-circuits records that already carry one, and
// failures are logged but never surfaced.
func (s *Sequencer) AutoGenerate(ctx context.Context, index int, hasWatermark bool, generate GenerateFunc) {
	if hasWatermark {
		return
	}

	if err := s.sleep(ctx, s.autoDelay); err != nil {
		return
	}

	if err := s.GenerateOne(ctx, index, generate); err != nil {
		s.logger.Debug().Err(err).Int("index", index).Msg("Auto watermark generation failed")
	}
}

// GenerateBulk processes the queued indices strictly sequentially with the
// fixed pacing delay after each completion. Item failures are tallied and the
// queue continues; only context cancellation stops the run early, between
// items. Progress is reported after every item.
func (s *Sequencer) GenerateBulk(ctx context.Context, queue []int, generate GenerateFunc, progress ProgressFunc) (Summary, error) {
	summary := Summary{Total: len(queue)}
	if len(queue) == 0 {
		return summary, nil
	}

	s.mu.Lock()
	if s.bulkActive {
		s.mu.Unlock()
		return Summary{}, ErrBulkInProgress
	}
	s.bulkActive = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.bulkActive = false
		s.mu.Unlock()
	}()

	for i, index := range queue {
		if err := generate(ctx, index); err != nil {
			summary.Failed++
			s.logger.Error().Err(err).Int("index", index).Msg("Bulk watermark generation item failed")
		} else {
			summary.Succeeded++
		}

		if progress != nil {
			progress(i+1, len(queue))
		}

		if err := s.sleep(ctx, s.bulkDelay); err != nil {
			return summary, err
		}
	}

	return summary, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
