package shutdown

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRecorder struct {
	mu    *sync.Mutex
	order *[]string
	name  string
}

func (o orderRecorder) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	*o.order = append(*o.order, o.name)
}

type stuck struct{ release chan struct{} }

func (s stuck) Shutdown() { <-s.release }

func TestShutdownReleasesInReverseOrderOnce(t *testing.T) {
	m := NewManager(context.Background(), nil)
	var mu sync.Mutex
	var order []string
	for _, name := range []string{"bar", "engine", "logger"} {
		m.Register(orderRecorder{mu: &mu, order: &order, name: name})
	}

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, []string{"logger", "engine", "bar"}, order)
	assert.Error(t, m.Context().Err())
	select {
	case <-m.Done():
	default:
		t.Fatal("Done is not closed after Shutdown")
	}
}

func TestFirstSignalCancelsSecondExits(t *testing.T) {
	m := NewManager(context.Background(), nil)
	var code int
	m.exit = func(c int) { code = c }
	var mu sync.Mutex
	var order []string
	m.Register(orderRecorder{mu: &mu, order: &order, name: "bar"})

	assert.False(t, m.Interrupted())
	m.handle(os.Interrupt)
	assert.True(t, m.Interrupted())
	require.Error(t, m.Context().Err())
	assert.Empty(t, order, "components stay up until the run has unwound")
	assert.Zero(t, code)

	m.handle(os.Interrupt)
	assert.Equal(t, ExitInterrupted, code)
	assert.Equal(t, []string{"bar"}, order)
}

func TestShutdownTimesOutStuckComponent(t *testing.T) {
	m := NewManager(context.Background(), nil)
	m.timeout = 20 * time.Millisecond
	s := stuck{release: make(chan struct{})}
	defer close(s.release)
	m.Register(s)

	start := time.Now()
	m.Shutdown()
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestParentCancellationPropagates(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	m := NewManager(parent, nil)
	cancel()
	assert.ErrorIs(t, m.Context().Err(), context.Canceled)
}
