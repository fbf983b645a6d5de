package devcred

import (
	"context"
	"time"

	"github.com/MrEthical07/devcred/credential"
)

// RunCleanup sweeps the store once and scrubs records past their retention
// deadline: expired families after Cleanup.ExpiredRetention, compromised
// families after Cleanup.CompromisedRetention (measured from the status
// change). Scrubbing zeroes both credential hashes and drops the device
// binding while keeping the record itself for audit reconstruction.
//
// The scrub is a full-record CAS, so a sweep never clobbers a concurrent
// rotation: if the record changed underneath, the swap is skipped and the
// record is picked up by a later pass.
//
//	Docs: docs/rotation.md
func (e *Engine) RunCleanup(ctx context.Context) (CleanupCounts, error) {
	return e.RunCleanupWithOptions(ctx, CleanupOptions{})
}

// RunCleanupWithOptions sweeps like [Engine.RunCleanup] with per-sweep
// retention overrides. Zero values keep the configured retentions; an
// operator can pass shorter horizons for a one-off purge without touching
// the engine configuration.
func (e *Engine) RunCleanupWithOptions(ctx context.Context, opts CleanupOptions) (CleanupCounts, error) {
	if e == nil || e.credStore == nil {
		return CleanupCounts{}, ErrEngineNotReady
	}

	expiredRetention := opts.ExpiredRetention
	if expiredRetention <= 0 {
		expiredRetention = e.config.Cleanup.ExpiredRetention
	}
	compromisedRetention := opts.CompromisedRetention
	if compromisedRetention <= 0 {
		compromisedRetention = e.config.Cleanup.CompromisedRetention
	}

	now := e.now().Unix()
	expiredBefore := now - int64(expiredRetention/time.Second)
	compromisedBefore := now - int64(compromisedRetention/time.Second)

	var counts CleanupCounts

	err := e.credStore.ForEach(ctx, e.config.Store.ScanBatch, func(rec *credential.Record) error {
		if rec.Scrubbed {
			return nil
		}

		compromisedEligible := rec.Status == credential.StatusCompromised &&
			rec.StatusChangedAt <= compromisedBefore
		expiredEligible := rec.ExpiresAt <= expiredBefore

		if !compromisedEligible && !expiredEligible {
			return nil
		}

		scrubbed := *rec
		scrubbed.CurrentHash = [32]byte{}
		scrubbed.PreviousHash = [32]byte{}
		scrubbed.HasPrevious = false
		scrubbed.PreviousDeadline = 0
		scrubbed.DeviceID = ""
		scrubbed.Scrubbed = true

		swapped, err := e.credStore.ScrubSwap(ctx, rec, &scrubbed)
		if err != nil {
			return err
		}
		if !swapped {
			return nil
		}

		if compromisedEligible {
			counts.CompromisedScrubbed++
			e.metricInc(MetricCleanupCompromisedScrubbed)
		} else {
			counts.ExpiredScrubbed++
			e.metricInc(MetricCleanupExpiredScrubbed)
		}
		e.emitAudit(ctx, auditEventCleanupScrubbed, true, rec.FamilyID, rec.IdentityID, "", rec.Generation, nil, func() map[string]string {
			return map[string]string{
				"status": rec.Status.String(),
			}
		})

		return nil
	})
	if err != nil {
		return counts, e.mapStoreError(err)
	}

	return counts, nil
}

// StartCleanup launches a background sweep loop at Cleanup.Interval. The
// loop stops when ctx is cancelled; the returned channel closes once the
// loop has exited.
func (e *Engine) StartCleanup(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if e == nil || e.credStore == nil {
		close(done)
		return done
	}

	go func() {
		defer close(done)

		ticker := time.NewTicker(e.config.Cleanup.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = e.RunCleanup(ctx)
			}
		}
	}()

	return done
}
