package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/bcnelson/apikey-console/internal/logging"
	"github.com/bcnelson/apikey-console/internal/storage"
	"github.com/rs/zerolog"
)

// ReconcileReport summarizes one expiry pass.
type ReconcileReport struct {
	StartedAt   time.Time      `json:"startedAt"`
	Today       domain.Date    `json:"today"`
	Checked     int            `json:"checked"`
	Expired     []domain.KeyID `json:"expired"`
	Deactivated []domain.KeyID `json:"deactivated"`
	Failed      []domain.KeyID `json:"failed"`
	Refreshed   bool           `json:"refreshed"`
	Total       int            `json:"total"`
}

// Reconciler deactivates active keys whose expiry date has been reached and
// then republishes the full key set from the store.
type Reconciler struct {
	store   storage.Storage
	now     func() time.Time
	loc     *time.Location
	publish func(domain.State)
	logger  zerolog.Logger
}

// NewReconciler creates a Reconciler. "Today" is the calendar date of now()
// in loc. publish receives every refreshed snapshot and may be nil.
func NewReconciler(store storage.Storage, now func() time.Time, loc *time.Location, publish func(domain.State)) *Reconciler {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	if publish == nil {
		publish = func(domain.State) {}
	}
	return &Reconciler{
		store:   store,
		now:     now,
		loc:     loc,
		publish: publish,
		logger:  logging.NewLogger("reconciler"),
	}
}

// Today returns the current calendar date in the reconciler's location.
func (r *Reconciler) Today() domain.Date {
	return domain.DateOf(r.now().In(r.loc))
}

// RunPass fetches every record and reconciles it.
func (r *Reconciler) RunPass(ctx context.Context) (ReconcileReport, error) {
	records, err := r.store.ListAPIKeys(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to fetch api keys")
		return ReconcileReport{StartedAt: r.now(), Today: r.Today()}, fmt.Errorf("fetching api keys: %w", err)
	}
	return r.Reconcile(ctx, records)
}

// Reconcile deactivates every active record in records whose expiry date is
// on or before today. Each write is independent: a failure is logged and the
// remaining records are still processed. Afterwards the whole table is
// re-read and published; if that read fails nothing is published and the
// error is returned.
func (r *Reconciler) Reconcile(ctx context.Context, records []*domain.APIKey) (ReconcileReport, error) {
	report := ReconcileReport{
		StartedAt: r.now(),
		Today:     r.Today(),
		Checked:   len(records),
	}

	for _, rec := range records {
		if rec == nil || !rec.IsActive() || !rec.ExpiredOn(report.Today) {
			continue
		}
		report.Expired = append(report.Expired, rec.ID)

		if err := r.store.SetAPIKeyStatus(ctx, rec.ID, domain.KeyStatusInactive); err != nil {
			report.Failed = append(report.Failed, rec.ID)
			r.logger.Error().Err(err).
				Str("id", rec.ID.String()).
				Str("expiry_date", rec.ExpiryDate.String()).
				Msg("failed to deactivate expired key")
			continue
		}
		report.Deactivated = append(report.Deactivated, rec.ID)
		r.logger.Info().
			Str("id", rec.ID.String()).
			Str("expiry_date", rec.ExpiryDate.String()).
			Msg("deactivated expired key")
	}

	fresh, err := r.store.ListAPIKeys(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to refresh api keys after expiry check")
		return report, fmt.Errorf("refreshing api keys: %w", err)
	}

	state := domain.NewState(fresh, r.now())
	report.Refreshed = true
	report.Total = state.Len()
	r.publish(state)

	r.logger.Debug().
		Int("checked", report.Checked).
		Int("expired", len(report.Expired)).
		Int("failed", len(report.Failed)).
		Int("total", report.Total).
		Msg("expiry check complete")
	return report, nil
}
