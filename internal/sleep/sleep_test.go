package sleep

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func at(h, m int) time.Time {
	return time.Date(2026, 10, 17, h, m, 42, 0, time.UTC)
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		now    time.Time
		want   time.Duration
	}{
		{"A late night", PolicyA, at(23, 10), 21000 * time.Second},
		{"B late night", PolicyB, at(23, 10), 21000 * time.Second},
		{"C ignores late night", PolicyC, at(23, 10), time.Hour},
		{"A afternoon", PolicyA, at(14, 0), time.Hour},
		{"B afternoon", PolicyB, at(14, 0), 15 * time.Minute},
		{"C afternoon", PolicyC, at(14, 0), time.Hour},
		{"A 21:59 is not late", PolicyA, at(21, 59), time.Hour},
		{"A 22:00 sleeps to 5", PolicyA, at(22, 0), 7 * time.Hour},
		{"B just after midnight", PolicyB, at(0, 30), 15 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.policy, tt.now))
		})
	}
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Sleeping for 5 hours, 50 minutes", Describe(21000*time.Second))
	assert.Equal(t, "Sleeping for 0 hours, 15 minutes", Describe(15*time.Minute))
	assert.Equal(t, "Sleeping for 1 hours, 0 minutes", Describe(time.Hour))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy(" b ")
	require.NoError(t, err)
	assert.Equal(t, PolicyB, p)

	_, err = ParsePolicy("D")
	assert.Error(t, err)
}

func TestExecSleeperSleepsThenExecs(t *testing.T) {
	var calls []string
	var slept time.Duration
	s := &ExecSleeper{
		Logger: zap.NewNop().Sugar(),
		Sleep: func(d time.Duration) {
			calls = append(calls, "sleep")
			slept = d
		},
		Exec: func(argv0 string, argv []string, envv []string) error {
			calls = append(calls, "exec")
			assert.Equal(t, os.Args, argv)
			return nil
		},
	}

	require.NoError(t, s.DeepSleep(context.Background(), 90*time.Second))
	assert.Equal(t, []string{"sleep", "exec"}, calls)
	assert.Equal(t, 90*time.Second, slept)
}

func TestExecSleeperReportsExecFailure(t *testing.T) {
	s := &ExecSleeper{
		Sleep: func(time.Duration) {},
		Exec: func(string, []string, []string) error {
			return errors.New("permission denied")
		},
	}

	err := s.DeepSleep(context.Background(), time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestExitSleeperReturns(t *testing.T) {
	s := &ExitSleeper{Now: func() time.Time { return at(14, 0) }}
	assert.NoError(t, s.DeepSleep(context.Background(), time.Hour))
}
