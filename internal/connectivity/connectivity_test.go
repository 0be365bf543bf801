package connectivity

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManual_EmitsTransitionsOnly(t *testing.T) {
	m := NewManual(false)
	ch, cancel := m.Subscribe()
	defer cancel()

	m.Set(false)
	select {
	case <-ch:
		t.Fatal("no transition expected")
	default:
	}

	m.Set(true)
	assert.True(t, m.Online())
	require.True(t, <-ch)

	m.Set(false)
	require.False(t, <-ch)
}

func TestManual_SlowSubscriberSeesLatestState(t *testing.T) {
	m := NewManual(false)
	ch, cancel := m.Subscribe()
	defer cancel()

	m.Set(true)
	m.Set(false)
	m.Set(true)

	assert.True(t, <-ch)
	select {
	case v := <-ch:
		t.Fatalf("unexpected extra value %v", v)
	default:
	}
}

func TestManual_CancelStopsDelivery(t *testing.T) {
	m := NewManual(true)
	ch, cancel := m.Subscribe()
	cancel()
	cancel()

	m.Set(false)
	select {
	case <-ch:
		t.Fatal("cancelled subscriber received a value")
	default:
	}
}

type fakePinger struct {
	mu    sync.Mutex
	fails int // remaining failures before success; -1 fails forever
	calls atomic.Int32
}

func (f *fakePinger) Ping(context.Context) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails == 0 {
		return nil
	}
	if f.fails > 0 {
		f.fails--
	}
	return errors.New("connection refused")
}

func (f *fakePinger) setFails(n int) {
	f.mu.Lock()
	f.fails = n
	f.mu.Unlock()
}

func newTestProber(p Pinger, attempts int) *Prober {
	pr := NewProber(p, 10*time.Millisecond, attempts, nil)
	pr.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return pr
}

func TestProber_RetriesBeforeDeclaringOffline(t *testing.T) {
	p := &fakePinger{fails: 2}
	pr := newTestProber(p, 3)

	assert.True(t, pr.Probe(context.Background()))
	assert.Equal(t, int32(3), p.calls.Load())
	assert.True(t, pr.Online())
}

func TestProber_OfflineAfterAllAttemptsFail(t *testing.T) {
	p := &fakePinger{}
	pr := newTestProber(p, 3)
	require.True(t, pr.Probe(context.Background()))

	ch, cancel := pr.Subscribe()
	defer cancel()

	p.setFails(-1)
	assert.False(t, pr.Probe(context.Background()))
	assert.False(t, <-ch)
	assert.False(t, pr.Online())
}

func TestProber_RunStopsOnCancel(t *testing.T) {
	p := &fakePinger{}
	pr := newTestProber(p, 1)
	ch, cancel := pr.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pr.Run(ctx)
		close(done)
	}()

	require.True(t, <-ch)
	stop()
	<-done
}
