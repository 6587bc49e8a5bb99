package sleep

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DeepSleeper ends a wake cycle. Implementations either never return on success
// (the process image is replaced) or return so the caller can exit.
type DeepSleeper interface {
	DeepSleep(ctx context.Context, d time.Duration) error
}

// ExecSleeper blocks for the duration and then re-executes the running binary with
// the same arguments and environment, so the program starts over from main.
type ExecSleeper struct {
	Logger *zap.SugaredLogger

	// Sleep and Exec default to time.Sleep and syscall.Exec.
	Sleep func(time.Duration)
	Exec  func(argv0 string, argv []string, envv []string) error
}

// DeepSleep does not return unless the exec fails.
func (s *ExecSleeper) DeepSleep(ctx context.Context, d time.Duration) error {
	sleepFn := s.Sleep
	if sleepFn == nil {
		sleepFn = time.Sleep
	}
	execFn := s.Exec
	if execFn == nil {
		execFn = syscall.Exec
	}

	if s.Logger != nil {
		s.Logger.Infow(Describe(d), "wake_at", time.Now().Add(d).Format(time.RFC3339))
	}
	sleepFn(d)

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := execFn(self, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("re-exec %s: %w", self, err)
	}
	return nil
}

// ExitSleeper only announces the wake time. The process exits afterwards and an
// external timer (systemd, cron) is expected to start the next cycle.
type ExitSleeper struct {
	Logger *zap.SugaredLogger
	Now    func() time.Time
}

func (s *ExitSleeper) DeepSleep(ctx context.Context, d time.Duration) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if s.Logger != nil {
		s.Logger.Infow(Describe(d), "wake_at", now().Add(d).Format(time.RFC3339))
	}
	return nil
}
