package async

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oakmont-labs/memberhub/pkg/contextkeys"
)

func TestSafeGo_RunsTask(t *testing.T) {
	done := make(chan struct{})
	SafeGo(context.Background(), time.Second, "test task", func(ctx context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
}

func TestSafeGo_RecoversPanic(t *testing.T) {
	panicked := make(chan struct{})
	SafeGo(context.Background(), time.Second, "panicking task", func(ctx context.Context) error {
		defer close(panicked)
		panic("boom")
	})

	select {
	case <-panicked:
		// The panic must not escape the goroutine.
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}
	time.Sleep(50 * time.Millisecond)
}

func TestSafeGo_EnforcesTimeout(t *testing.T) {
	expired := make(chan error, 1)
	SafeGo(context.Background(), 20*time.Millisecond, "slow task", func(ctx context.Context) error {
		<-ctx.Done()
		expired <- ctx.Err()
		return nil
	})

	select {
	case err := <-expired:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout never fired")
	}
}

func TestDetached_SurvivesParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	parent = contextkeys.WithRequestID(parent, "req-1")

	detached := Detached(parent)
	cancel()

	assert.NoError(t, detached.Err(), "detached context ignores parent cancellation")
	assert.Equal(t, "req-1", contextkeys.RequestID(detached), "values carried over")
}
