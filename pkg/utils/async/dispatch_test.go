package async_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pythia/pkg/utils/async"
)

func TestDispatch(t *testing.T) {
	t.Run("handler runs detached from the caller's context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		done := make(chan error, 1)
		async.Dispatch(ctx, func(ctx context.Context) error {
			done <- ctx.Err()
			return nil
		})

		select {
		case err := <-done:
			gt.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("handler did not run")
		}
	})

	t.Run("handler error does not propagate", func(t *testing.T) {
		done := make(chan struct{})
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			defer close(done)
			return goerr.New("handler failed")
		})

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler did not run")
		}
	})

	t.Run("panic is contained", func(t *testing.T) {
		entered := make(chan struct{})
		async.Dispatch(context.Background(), func(ctx context.Context) error {
			close(entered)
			panic("boom")
		})

		select {
		case <-entered:
		case <-time.After(time.Second):
			t.Fatal("handler did not run")
		}
		// give the recover path a moment; a leaked panic would fail the test run
		time.Sleep(10 * time.Millisecond)
	})
}
