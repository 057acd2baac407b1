// Package shutdown turns SIGINT/SIGTERM into context cancellation and
// releases registered components in reverse registration order.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"segmentation-augmentor/internal/logger"
)

// ExitInterrupted is the conventional exit status after SIGINT.
const ExitInterrupted = 130

type Shutdownable interface {
	Shutdown()
}

// Manager owns the run context. The first signal cancels it so the
// coordinator can stop before its next cell; a second signal releases every
// component and exits immediately.
type Manager struct {
	components []Shutdownable
	logger     logger.Logger
	mu         sync.Mutex
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc

	signals     chan os.Signal
	interrupted atomic.Int32
	timeout     time.Duration
	exit        func(int)
}

func NewManager(parent context.Context, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(parent)

	return &Manager{
		logger:  log,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		timeout: 10 * time.Second,
		exit:    os.Exit,
	}
}

func (m *Manager) Register(component Shutdownable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, component)
}

// Listen starts watching for SIGINT and SIGTERM until Stop is called.
func (m *Manager) Listen() {
	m.signals = make(chan os.Signal, 2)
	signal.Notify(m.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-m.signals:
				m.handle(sig)
			case <-m.done:
				return
			}
		}
	}()
}

// Stop detaches the signal handler. Subsequent signals get the default
// behaviour.
func (m *Manager) Stop() {
	if m.signals != nil {
		signal.Stop(m.signals)
	}
}

func (m *Manager) handle(sig os.Signal) {
	if m.interrupted.Add(1) == 1 {
		m.logger.Warning("ShutdownManager", "interrupt received, finishing current cell", map[string]interface{}{
			"signal": sig.String(),
		})
		m.cancel()
		return
	}

	m.logger.Warning("ShutdownManager", "second interrupt, exiting now", map[string]interface{}{
		"signal": sig.String(),
	})
	m.Shutdown()
	m.exit(ExitInterrupted)
}

// Interrupted reports whether a signal has been received.
func (m *Manager) Interrupted() bool {
	return m.interrupted.Load() > 0
}

// Shutdown cancels the context and releases components, newest first. Each
// component gets a bounded amount of time. Only the first call has effect.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case <-m.done:
		return
	default:
		close(m.done)
	}

	m.logger.Debug("ShutdownManager", "releasing components", map[string]interface{}{
		"components": len(m.components),
	})
	m.cancel()

	for i := len(m.components) - 1; i >= 0; i-- {
		component := m.components[i]

		done := make(chan struct{})
		go func() {
			defer close(done)
			component.Shutdown()
		}()

		select {
		case <-done:
		case <-time.After(m.timeout):
			m.logger.Warning("ShutdownManager", "component shutdown timeout", map[string]interface{}{
				"component_index": i,
			})
		}
	}
}

func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
