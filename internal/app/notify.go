package app

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dev-tams/assetsweep/internal/cleanup"
	"github.com/dev-tams/assetsweep/internal/notify"
)

const notificationTimeout = 5 * time.Second

// eventListLimit caps the sample and failure lists carried by an event.
const eventListLimit = 20

func cleanupEvent(res *cleanup.Result, mode string, dryRun bool, err error, elapsed time.Duration) notify.Event {
	ev := failureEvent(mode, dryRun, err, elapsed)
	if res == nil {
		return ev
	}
	if err == nil {
		ev.Status = notify.StatusSuccess
		if len(res.Errors) > 0 {
			ev.Status = notify.StatusPartial
		}
	}

	ev.RunID = res.RunID
	ev.Scanned = res.Scanned
	ev.Found = res.Found
	ev.Deleted = res.Deleted
	ev.Skipped = res.Skipped
	ev.Errors = len(res.Errors)
	ev.StorageSaved = res.StorageSaved
	ev.Reasons = reasonCounts(res.DeletedAssets)

	for _, c := range res.DeletedAssets {
		if len(ev.Sample) == eventListLimit {
			break
		}
		ev.Sample = append(ev.Sample, notify.Item{ID: c.ID, Key: c.Key, Reason: c.Reason, Bytes: c.EstimatedSize})
	}
	for _, e := range res.Errors {
		if len(ev.Failures) == eventListLimit {
			break
		}
		ev.Failures = append(ev.Failures, notify.Failure{Key: e.Key, Error: e.Error})
	}
	return ev
}

// reasonCounts groups candidates by reason, largest group first.
func reasonCounts(cands []cleanup.Candidate) []notify.ReasonCount {
	idx := make(map[string]int)
	var out []notify.ReasonCount
	for _, c := range cands {
		reason := c.Reason
		// low-quality reasons embed the score; group them together
		if strings.HasPrefix(reason, "Low quality score:") {
			reason = "Low quality score"
		}
		// so do duplicates, with the kept id
		if strings.HasPrefix(reason, "Duplicate of ") {
			reason = "Duplicate"
		}
		i, ok := idx[reason]
		if !ok {
			i = len(out)
			idx[reason] = i
			out = append(out, notify.ReasonCount{Reason: reason})
		}
		out[i].Count++
		out[i].Bytes += c.EstimatedSize
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func failureEvent(mode string, dryRun bool, err error, elapsed time.Duration) notify.Event {
	ev := notify.Event{
		Mode:     mode,
		Status:   notify.StatusFailure,
		DryRun:   dryRun,
		Duration: elapsed.Round(time.Millisecond).String(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}

func notifyRun(ctx context.Context, dispatcher *notify.Dispatcher, ev notify.Event, rt Runtime) {
	notifyCtx, cancel := notificationContext(ctx)
	defer cancel()

	if err := dispatcher.Notify(notifyCtx, ev); err != nil {
		rt.Log.Warn().Err(err).Str("mode", ev.Mode).Str("status", ev.Status).Msg("notification failed")
	}
}

// notificationContext outlives a cancelled run so failures still get reported.
func notificationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), notificationTimeout)
	}
	return context.WithTimeout(context.WithoutCancel(ctx), notificationTimeout)
}
