package process

import (
	"context"
	"fmt"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

type ProcessContext struct {
	mu       sync.RWMutex
	wg       sync.WaitGroup     // used to wait for components to shutdown
	ctx      context.Context    // cancelled when Stop is called
	shutdown context.CancelFunc // shut down the console
	degraded map[string]struct{}
	flagged  atomic.Bool
}

func NewProcessContext() *ProcessContext {
	ctx, shutdown := context.WithCancel(context.Background())
	return &ProcessContext{
		ctx:      ctx,
		shutdown: shutdown,
		degraded: make(map[string]struct{}),
	}
}

func (b *ProcessContext) Context() context.Context {
	return context.WithValue(b.ctx, "scope", "process") // nolint:staticcheck
}

func (b *ProcessContext) ComponentStarted() {
	b.wg.Add(1)
}

func (b *ProcessContext) ComponentFinished() {
	b.wg.Done()
}

func (b *ProcessContext) ShutdownConsole() {
	b.shutdown()
}

func (b *ProcessContext) WaitForShutdown() <-chan struct{} {
	return b.ctx.Done()
}

func (b *ProcessContext) WaitForComponentsToFinish() {
	b.wg.Wait()
}

// Degraded records that err put the process in a degraded state. The first
// occurrence of each distinct error is reported to Sentry.
func (b *ProcessContext) Degraded(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.degraded[err.Error()]; !ok {
		logrus.WithError(err).Warn("The console is running in a degraded state")
		sentry.CaptureException(fmt.Errorf("process is running in a degraded state: %w", err))
		b.degraded[err.Error()] = struct{}{}
	}
	b.flagged.Store(true)
}

// Recovered clears the degraded state once the failing dependency is back.
func (b *ProcessContext) Recovered() {
	if !b.flagged.CompareAndSwap(true, false) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.degraded = make(map[string]struct{})
	logrus.Info("The console is no longer degraded")
}

func (b *ProcessContext) IsDegraded() (bool, []string) {
	if !b.flagged.Load() {
		return false, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	reasons := make([]string, 0, len(b.degraded))
	for reason := range b.degraded {
		reasons = append(reasons, reason)
	}
	return true, reasons
}
