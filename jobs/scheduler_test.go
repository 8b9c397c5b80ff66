package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/jobs"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/payroll"
)

type recordingRunner struct {
	mu      sync.Mutex
	calls   [][2]int
	err     error
	block   chan struct{}
	started chan struct{}
}

func (r *recordingRunner) RunMonth(ctx context.Context, year, month int) (*payroll.RunReport, error) {
	r.mu.Lock()
	r.calls = append(r.calls, [2]int{year, month})
	r.mu.Unlock()
	if r.started != nil {
		close(r.started)
	}
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return nil, r.err
	}
	period, _ := generic.MonthPeriod(year, month)
	return &payroll.RunReport{Period: period, Created: []generic.PaymentID{"p1"}}, nil
}

func newScheduler(runner jobs.Runner, now time.Time) *jobs.PayrollScheduler {
	s := jobs.NewPayrollScheduler(runner, logging.Discard())
	s.Now = func() time.Time { return now }
	return s
}

func TestRunOnce_PaysPreviousMonth(t *testing.T) {
	tests := []struct {
		now   time.Time
		year  int
		month int
	}{
		{time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC), 2025, 3},
		{time.Date(2025, 1, 1, 2, 0, 0, 0, time.UTC), 2024, 12},
		{time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC), 2024, 2},
	}

	for _, tt := range tests {
		runner := &recordingRunner{}
		s := newScheduler(runner, tt.now)

		report := s.RunOnce(context.Background())

		require.NotNil(t, report)
		assert.Equal(t, [][2]int{{tt.year, tt.month}}, runner.calls)
		assert.Same(t, report, s.LastReport())
	}
}

func TestRunOnce_FailureKeepsLastReport(t *testing.T) {
	runner := &recordingRunner{}
	s := newScheduler(runner, time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC))
	first := s.RunOnce(context.Background())
	require.NotNil(t, first)

	runner.err = errors.New("database down")
	assert.Nil(t, s.RunOnce(context.Background()))

	assert.Same(t, first, s.LastReport())
}

func TestRunOnce_SkipsOverlappingRun(t *testing.T) {
	runner := &recordingRunner{block: make(chan struct{}), started: make(chan struct{})}
	s := newScheduler(runner, time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC))

	done := make(chan struct{})
	go func() {
		s.RunOnce(context.Background())
		close(done)
	}()
	<-runner.started

	// A second run while the first is blocked is skipped
	assert.Nil(t, s.RunOnce(context.Background()))

	close(runner.block)
	<-done
	assert.Len(t, runner.calls, 1)
}

func TestStart_InvalidSchedule(t *testing.T) {
	s := newScheduler(&recordingRunner{}, time.Now())
	s.Schedule = "every full moon"

	assert.Error(t, s.Start())
}

func TestStartStop(t *testing.T) {
	s := newScheduler(&recordingRunner{}, time.Now())

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
}
