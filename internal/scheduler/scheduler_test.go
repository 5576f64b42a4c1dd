//go:build unit

package scheduler_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"villa-booking/internal/pkg/config"
	"villa-booking/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	dispatched atomic.Int32
	purged     atomic.Int32
}

func (r *countingRunner) Dispatch(context.Context) (int, error) {
	r.dispatched.Add(1)
	return 0, nil
}

func (r *countingRunner) Purge(context.Context) (int64, error) {
	r.purged.Add(1)
	return 0, nil
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.SchedulerConfig
		msg  string
	}{
		{name: "dispatch", cfg: config.SchedulerConfig{DispatchSpec: "every now and then", PurgeSpec: "@daily"}, msg: "invalid dispatch spec"},
		{name: "purge", cfg: config.SchedulerConfig{DispatchSpec: "@every 1s", PurgeSpec: "61 * * * * *"}, msg: "invalid purge spec"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := scheduler.NewScheduler(tc.cfg, &countingRunner{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestScheduler_RunsDispatch(t *testing.T) {
	runner := &countingRunner{}
	s, err := scheduler.NewScheduler(config.SchedulerConfig{DispatchSpec: "* * * * * *", PurgeSpec: "@yearly"}, runner)
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return runner.dispatched.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Zero(t, runner.purged.Load())
}
