package jito

import (
	"context"
	"time"

	"bundler/config"
	"bundler/logger"
	"bundler/types"
)

// StatusPoller is the slice of Client the watcher needs; tests substitute
// a mock relay.
type StatusPoller interface {
	BundleStatuses(bundleIds []string) ([]BundleStatus, error)
}

// WatchOutcome observes relay-side processing of a submitted bundle until
// it is accepted or the timeout elapses.
//
// A Failed status is recorded but does not end the wait: the relay
// re-submits bundles across upcoming leaders, so an early rejection can
// still be followed by an acceptance. Only acceptance or the wall-clock
// bound terminates observation. On timeout the outcome carries the
// sentinel 0 accepted count; timing out is a legitimate result, not an
// error.
func WatchOutcome(ctx context.Context, poller StatusPoller, bundleId string, timeout time.Duration) *types.BundleOutcome {
	outcome := &types.BundleOutcome{
		BundleId: bundleId,
		Status:   types.OutcomeTimedOut,
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(config.BUNDLE_STATUS_POLL_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.JitoLogger.Warn("Outcome watch cancelled", "bundleId", bundleId, "err", ctx.Err())
			outcome.Timestamp = time.Now()
			return outcome
		case <-deadline.C:
			logger.JitoLogger.Warn("No acceptance observed within bound", "bundleId", bundleId, "timeout", timeout)
			outcome.Timestamp = time.Now()
			return outcome
		case <-ticker.C:
			statuses, err := poller.BundleStatuses([]string{bundleId})
			if err != nil {
				logger.JitoLogger.Warn("Bundle status poll failed", "bundleId", bundleId, "err", err)
				continue
			}
			for _, st := range statuses {
				if st.BundleId != bundleId {
					continue
				}
				switch st.Status {
				case StatusLanded:
					logger.JitoLogger.Info("Bundle accepted", "bundleId", bundleId, "slot", st.LandedSlot)
					outcome.Status = types.OutcomeAccepted
					outcome.Slot = st.LandedSlot
					outcome.Accepted = 1
					outcome.Timestamp = time.Now()
					return outcome
				case StatusFailed:
					logger.JitoLogger.Info("Bundle rejected, still waiting for a later acceptance", "bundleId", bundleId, "reason", st.Error)
					outcome.Rejections = append(outcome.Rejections, st.Error)
				}
			}
		}
	}
}
