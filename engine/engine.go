// Package engine implements thread lifecycle, CPU affinity, the adaptive
// backoff loop, and cooperative shutdown signalling for a pipeline's
// stages.
//
// Each stage runs as one goroutine locked to its own OS thread, driven by
// a shared atomic shutdown flag and a WaitGroup the owner waits on — the same
// one-goroutine-per-processing-unit shape as a classic event-processor
// loop. Engine generalizes that to N named stages, adds the Hot/Warm/Cold
// backoff state machine (backoff.go) in place of an unconditional
// runtime.Gosched() spin, and adds optional CPU pinning
// (internal/shm/affinity_linux.go).
package engine

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tislib/roda-state/internal/shm"
	"github.com/tislib/roda-state/stage"
)

// Stepper is satisfied by any stage.Stage[In, Out]: Step's signature
// doesn't depend on the stage's item types, so the engine can drive
// heterogeneous stages through one interface.
type Stepper interface {
	Step() (stage.Result, error)
	State() stage.State
	RequestShutdown()
}

// Engine owns worker goroutines (one per stage, each pinned to its own OS
// thread via runtime.LockOSThread so CPU affinity is meaningful), the
// regions backing the journals/slot stores it was asked to create, and
// the shared cooperative shutdown flag.
type Engine struct {
	cfg    Config
	logger *zap.SugaredLogger

	shutdown atomic.Bool
	wg       sync.WaitGroup

	mu      sync.Mutex
	closers []io.Closer
	names   []string
}

// New constructs an Engine. If logger is nil, a no-op logger is used.
func New(cfg Config, logger *zap.SugaredLogger) *Engine {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Track registers a closer (typically a *journal.Journal[T] or
// *slotstore.SlotStore[T]) so Close releases its region when the engine
// shuts down. name is used only for log messages.
func (e *Engine) Track(name string, c io.Closer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closers = append(e.closers, c)
	e.names = append(e.names, name)
}

// DrainGrace returns the engine's configured drain grace period as a
// time.Duration, for stage.New's graceTimeout parameter.
func (e *Engine) DrainGrace() time.Duration {
	return time.Duration(e.cfg.DrainGrace)
}

// Spawn starts one worker goroutine driving st's Step loop until the
// engine is shut down and st has fully drained. stageIndex selects the
// CPU affinity entry from Config.Affinity, if any.
func (e *Engine) Spawn(name string, stageIndex int, st Stepper) {
	e.wg.Add(1)
	go e.runWorker(name, stageIndex, st)
}

// SpawnWithBackoff is Spawn, but overrides the engine-wide default
// backoff thresholds for this one worker. Some stages are latency
// critical and others aren't; this lets a caller tune a single hot stage
// without changing Config for the whole engine.
func (e *Engine) SpawnWithBackoff(name string, stageIndex int, st Stepper, backoff BackoffConfig) {
	e.wg.Add(1)
	go e.runWorkerWithBackoff(name, stageIndex, st, backoff)
}

func (e *Engine) runWorker(name string, stageIndex int, st Stepper) {
	e.runWorkerWithBackoff(name, stageIndex, st, e.cfg.Backoff)
}

func (e *Engine) runWorkerWithBackoff(name string, stageIndex int, st Stepper, backoffCfg BackoffConfig) {
	defer e.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if cpu, ok := e.cfg.Affinity[stageIndex]; ok {
		if err := shm.PinThreadToCPU(cpu); err != nil {
			e.logger.Warnw("cpu affinity unavailable, continuing unpinned",
				"stage", name, "cpu", cpu, "error", err)
		}
	}

	backoff := newBackoffState(backoffCfg)

	for {
		if e.shutdown.Load() {
			st.RequestShutdown()
		}

		res, err := st.Step()
		if err != nil {
			e.logger.Errorw("stage append failed, stopping worker",
				"stage", name, "error", err)
			return
		}

		if res == stage.Worked {
			backoff.onWork()
		} else {
			backoff.onIdle()
		}

		if st.State() == stage.Stopped {
			e.logger.Infow("stage stopped", "stage", name)
			return
		}
	}
}

// Shutdown sets the shared shutdown flag and waits for every spawned
// worker to observe it and drain, or for ctx to expire first.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.shutdown.Store(true)

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine: shutdown did not complete before deadline: %w", ctx.Err())
	}
}

// Close releases every tracked journal/slot-store region. Call after
// Shutdown returns.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var firstErr error
	for i, c := range e.closers {
		if err := c.Close(); err != nil {
			e.logger.Warnw("error closing region", "name", e.names[i], "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
