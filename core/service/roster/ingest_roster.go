// Package roster reconciles the student table against the school portal.
package roster

import (
	"context"
	"time"

	"ingest_server/core/domain"
	"ingest_server/core/port/out"
	"ingest_server/pkg/apperr"
	"ingest_server/pkg/logger"
)

const (
	lockName = "roster-sync"
	syncType = "students"
)

type Config struct {
	LockTTLSec int
}

type Service struct {
	source   out.RosterSourcePort
	students out.StudentRepository
	syncLogs out.SyncLogRepository
	locks    out.RunLockPort
	cfg      Config
	log      *logger.Logger
}

func NewService(
	source out.RosterSourcePort,
	students out.StudentRepository,
	syncLogs out.SyncLogRepository,
	locks out.RunLockPort,
	cfg Config,
) *Service {
	if cfg.LockTTLSec == 0 {
		cfg.LockTTLSec = 600
	}
	return &Service{
		source:   source,
		students: students,
		syncLogs: syncLogs,
		locks:    locks,
		cfg:      cfg,
		log:      logger.WithField("component", "roster"),
	}
}

// Sync fetches the full roster and reconciles it: every scraped student
// is upserted, anyone missing from the scrape is deactivated rather than
// deleted. The outcome is always written to the sync log, including
// top-level failures, so the last run is visible even when it crashed
// before touching a single row.
func (s *Service) Sync(ctx context.Context) (*domain.RosterSyncResult, error) {
	acquired, err := s.locks.Acquire(ctx, lockName, s.cfg.LockTTLSec)
	if err != nil {
		return nil, apperr.ExternalError("run lock", err)
	}
	if !acquired {
		return nil, apperr.Conflict("a roster sync is already in progress")
	}
	defer func() {
		if err := s.locks.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.log.WithError(err).Warn("failed to release roster lock")
		}
	}()

	start := time.Now()

	scraped, err := s.source.FetchRoster(ctx)
	if err != nil {
		s.logOutcome(ctx, &domain.SyncLog{
			SyncType:     syncType,
			Status:       domain.RosterSyncFailed,
			DurationMs:   time.Since(start).Milliseconds(),
			ErrorDetails: map[string]string{"error": err.Error()},
		})
		return nil, err
	}

	syncedAt := time.Now()
	result := &domain.RosterSyncResult{StudentsFound: len(scraped)}

	for _, st := range scraped {
		if err := s.students.Upsert(ctx, st, syncedAt); err != nil {
			result.RecordsError++
			result.Errors = append(result.Errors, domain.RosterError{
				ClickeduID: st.ClickeduID,
				Error:      err.Error(),
			})
			s.log.WithError(err).WithField("clickedu_id", st.ClickeduID).Warn("student upsert failed")
			continue
		}
		result.RecordsOk++
	}

	// Deactivation only trusts a scrape that put rows in: if nothing was
	// upserted, deactivating would wipe the roster on a bad scrape.
	if result.RecordsOk > 0 {
		keep := make([]int64, 0, result.RecordsOk)
		for _, st := range scraped {
			keep = append(keep, st.ClickeduID)
		}
		deactivated, err := s.students.DeactivateMissing(ctx, keep)
		if err != nil {
			result.RecordsError++
			result.Errors = append(result.Errors, domain.RosterError{Error: "deactivate missing: " + err.Error()})
		} else {
			result.Deactivated = deactivated
		}
	}

	switch {
	case result.RecordsError == 0:
		result.Status = domain.RosterSyncCompleted
	case result.RecordsOk > 0:
		result.Status = domain.RosterSyncPartial
	default:
		result.Status = domain.RosterSyncFailed
	}
	result.DurationMs = time.Since(start).Milliseconds()

	var details any
	if len(result.Errors) > 0 {
		details = result.Errors
	}
	s.logOutcome(ctx, &domain.SyncLog{
		SyncType:     syncType,
		Status:       result.Status,
		RecordsTotal: result.StudentsFound,
		RecordsOk:    result.RecordsOk,
		RecordsError: result.RecordsError,
		DurationMs:   result.DurationMs,
		ErrorDetails: details,
	})

	s.log.WithField("found", result.StudentsFound).
		WithField("ok", result.RecordsOk).
		WithField("errors", result.RecordsError).
		WithField("deactivated", result.Deactivated).
		WithDuration(time.Since(start)).
		Info("roster sync finished")
	return result, nil
}

func (s *Service) logOutcome(ctx context.Context, l *domain.SyncLog) {
	if err := s.syncLogs.Insert(ctx, l); err != nil {
		s.log.WithError(err).Error("failed to write sync log")
	}
}
