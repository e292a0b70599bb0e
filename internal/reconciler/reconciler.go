// Package reconciler runs the periodic housekeeping pass: it recomputes the
// coarse room-status projection from committed stays and releases holds that
// were never confirmed.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"lodge/config"
	bookingRepo "lodge/internal/domains/booking/repository"
	roomRepo "lodge/internal/domains/room/repository"
	"lodge/shared/timezone"
)

type Reconciler struct {
	rooms    roomRepo.Room
	bookings bookingRepo.Booking
	cfg      *config.Config
}

func New(rooms roomRepo.Room, bookings bookingRepo.Booking, cfg *config.Config) *Reconciler {
	return &Reconciler{
		rooms:    rooms,
		bookings: bookings,
		cfg:      cfg,
	}
}

func (r *Reconciler) interval() time.Duration {
	seconds := r.cfg.Booking.ReconcileIntervalSeconds
	if seconds <= 0 {
		seconds = 300
	}

	return time.Duration(seconds) * time.Second
}

func (r *Reconciler) holdCutoff(now time.Time) time.Time {
	days := r.cfg.Booking.HoldExpiryDays
	if days <= 0 {
		days = 3
	}

	return now.AddDate(0, 0, -days)
}

// RunOnce executes a single reconciliation pass. Errors are logged, not
// returned to the ticker loop, so one failing statement never stops the
// other.
func (r *Reconciler) RunOnce(ctx context.Context) {
	now := timezone.Now()

	released, err := r.bookings.ReleaseStaleHolds(ctx, r.holdCutoff(now))
	if err != nil {
		log.Error().Err(err).Msg("failed to release stale holds")
	} else if released > 0 {
		log.Info().Int64("released", released).Msg("released stale holds")
	}

	if err := r.rooms.RefreshStatusProjection(ctx, now); err != nil {
		log.Error().Err(err).Msg("failed to refresh room status projection")
	}
}

// Run blocks until the context is cancelled, reconciling on every tick.
// The first pass runs immediately so a restart does not wait a full
// interval.
func (r *Reconciler) Run(ctx context.Context) {
	interval := r.interval()

	log.Info().Dur("interval", interval).Msg("starting booking reconciler")

	r.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping booking reconciler")

			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}
