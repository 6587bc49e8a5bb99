package screen

import (
	"context"
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/sabarrett328/SBMagtag-Weather/internal/fault"
	"github.com/sabarrett328/SBMagtag-Weather/internal/panel"
)

// settleMargin is added to the panel's reported refresh time on both waits.
const settleMargin = time.Second

// Updater pushes frames to a panel using the settle-refresh-settle protocol the
// e-paper hardware requires.
type Updater struct {
	Panel panel.Panel
	Log   *zap.SugaredLogger

	// Sleep defaults to time.Sleep. The waits are deliberately not cancellable.
	Sleep func(time.Duration)
}

// Show waits TimeToRefresh()+1s, refreshes, then waits TimeToRefresh()+1s again.
// A rejected refresh is returned as a display fault; the second wait is skipped then.
func (u *Updater) Show(ctx context.Context, frame image.Image) error {
	sleep := u.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	log := u.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	sleep(u.Panel.TimeToRefresh() + settleMargin)

	log.Infow("Refreshing display", "panel", u.Panel.Name())
	if err := u.Panel.Refresh(ctx, frame); err != nil {
		if panel.IsAuthError(err) {
			log.Errorw("Panel rejected the credentials, check panel.quote0.token and device", "panel", u.Panel.Name(), "error", err)
		}
		return fault.Wrap(err, fault.Display, "refresh")
	}

	sleep(u.Panel.TimeToRefresh() + settleMargin)
	return nil
}
