package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"ingest_server/core/domain"
	"ingest_server/pkg/apperr"
)

type fakeSource struct {
	students []*domain.ScrapedStudent
	err      error
}

func (f *fakeSource) FetchRoster(_ context.Context) ([]*domain.ScrapedStudent, error) {
	return f.students, f.err
}

type fakeStudents struct {
	upserted    []int64
	failFor     map[int64]bool
	keep        []int64
	deactivated int
}

func (f *fakeStudents) ListActive(_ context.Context) ([]*domain.Student, error) {
	return nil, nil
}

func (f *fakeStudents) Upsert(_ context.Context, st *domain.ScrapedStudent, _ time.Time) error {
	if f.failFor[st.ClickeduID] {
		return errors.New("duplicate key")
	}
	f.upserted = append(f.upserted, st.ClickeduID)
	return nil
}

func (f *fakeStudents) DeactivateMissing(_ context.Context, keep []int64) (int, error) {
	f.keep = keep
	return f.deactivated, nil
}

type fakeSyncLogs struct {
	entries []*domain.SyncLog
}

func (f *fakeSyncLogs) Insert(_ context.Context, l *domain.SyncLog) error {
	f.entries = append(f.entries, l)
	return nil
}

type fakeLocks struct {
	held bool
}

func (f *fakeLocks) Acquire(_ context.Context, _ string, _ int) (bool, error) {
	return !f.held, nil
}

func (f *fakeLocks) Release(_ context.Context, _ string) error { return nil }

func scrapedRoster() []*domain.ScrapedStudent {
	return []*domain.ScrapedStudent{
		{ClickeduID: 1001, FirstName: "Maria", LastName: "Font", ClassID: 105},
		{ClickeduID: 1002, FirstName: "Jordi", LastName: "Soler", ClassID: 112},
		{ClickeduID: 1003, FirstName: "Laia", LastName: "Roca", ClassID: 117},
	}
}

func TestSyncCompleted(t *testing.T) {
	students := &fakeStudents{failFor: map[int64]bool{}, deactivated: 2}
	logs := &fakeSyncLogs{}
	svc := NewService(&fakeSource{students: scrapedRoster()}, students, logs, &fakeLocks{}, Config{})

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != domain.RosterSyncCompleted {
		t.Errorf("Status = %s, want completed", result.Status)
	}
	if result.StudentsFound != 3 || result.RecordsOk != 3 || result.RecordsError != 0 {
		t.Errorf("counts = %+v, want 3 found, 3 ok", result)
	}
	if result.Deactivated != 2 {
		t.Errorf("Deactivated = %d, want 2", result.Deactivated)
	}
	if len(students.keep) != 3 {
		t.Errorf("keep list = %v, want all scraped ids", students.keep)
	}
	if len(logs.entries) != 1 || logs.entries[0].Status != domain.RosterSyncCompleted {
		t.Fatalf("sync log = %+v, want one completed entry", logs.entries)
	}
	if logs.entries[0].ErrorDetails != nil {
		t.Error("completed run should log no error details")
	}
}

func TestSyncPartial(t *testing.T) {
	students := &fakeStudents{failFor: map[int64]bool{1002: true}}
	logs := &fakeSyncLogs{}
	svc := NewService(&fakeSource{students: scrapedRoster()}, students, logs, &fakeLocks{}, Config{})

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != domain.RosterSyncPartial {
		t.Errorf("Status = %s, want partial", result.Status)
	}
	if result.RecordsOk != 2 || result.RecordsError != 1 {
		t.Errorf("ok = %d, errors = %d, want 2, 1", result.RecordsOk, result.RecordsError)
	}
	if len(result.Errors) != 1 || result.Errors[0].ClickeduID != 1002 {
		t.Errorf("Errors = %v, want the failed student identified", result.Errors)
	}
	// Deactivation still runs: the failed row keeps its previous state.
	if len(students.keep) != 3 {
		t.Errorf("keep list = %v, want every scraped id", students.keep)
	}
	if logs.entries[0].ErrorDetails == nil {
		t.Error("partial run should log error details")
	}
}

func TestSyncFetchFailureStillLogged(t *testing.T) {
	logs := &fakeSyncLogs{}
	svc := NewService(
		&fakeSource{err: apperr.LoginFailed("LOGIN_STEP2_FAILED: bad credentials")},
		&fakeStudents{}, logs, &fakeLocks{}, Config{})

	_, err := svc.Sync(context.Background())
	if err == nil {
		t.Fatal("expected fetch error to propagate")
	}
	if len(logs.entries) != 1 {
		t.Fatal("failed run must still be logged")
	}
	entry := logs.entries[0]
	if entry.Status != domain.RosterSyncFailed {
		t.Errorf("Status = %s, want failed", entry.Status)
	}
	details, ok := entry.ErrorDetails.(map[string]string)
	if !ok || details["error"] == "" {
		t.Errorf("ErrorDetails = %v, want error message map", entry.ErrorDetails)
	}
}

func TestSyncSkipsDeactivationWhenNothingUpserted(t *testing.T) {
	students := &fakeStudents{failFor: map[int64]bool{1001: true, 1002: true, 1003: true}}
	logs := &fakeSyncLogs{}
	svc := NewService(&fakeSource{students: scrapedRoster()}, students, logs, &fakeLocks{}, Config{})

	result, err := svc.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result.Status != domain.RosterSyncFailed {
		t.Errorf("Status = %s, want failed when no row landed", result.Status)
	}
	if students.keep != nil {
		t.Error("deactivation must not run when every upsert failed")
	}
}

func TestSyncLockContention(t *testing.T) {
	svc := NewService(&fakeSource{}, &fakeStudents{}, &fakeSyncLogs{}, &fakeLocks{held: true}, Config{})

	_, err := svc.Sync(context.Background())
	if appErr := apperr.AsAppError(err); appErr.Code != apperr.CodeConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
}
