package importer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"ingest_server/core/domain"
)

type fakeStudentRepo struct {
	students []*domain.Student
}

func (f *fakeStudentRepo) ListActive(ctx context.Context) ([]*domain.Student, error) {
	return f.students, nil
}

func (f *fakeStudentRepo) Upsert(ctx context.Context, s *domain.ScrapedStudent, at time.Time) error {
	return nil
}

func (f *fakeStudentRepo) DeactivateMissing(ctx context.Context, keep []int64) (int, error) {
	return 0, nil
}

type fakeYearRepo struct {
	year domain.SchoolYear
}

func (f *fakeYearRepo) Current(ctx context.Context) (*domain.SchoolYear, error) {
	return &f.year, nil
}

type fakeYearlyRepo struct {
	upserts []*domain.YearlyRecord
}

func (f *fakeYearlyRepo) Upsert(ctx context.Context, r *domain.YearlyRecord) error {
	f.upserts = append(f.upserts, r)
	return nil
}

type fakeSupportRepo struct {
	upserts []*domain.SupportRecord
}

func (f *fakeSupportRepo) Upsert(ctx context.Context, r *domain.SupportRecord) error {
	f.upserts = append(f.upserts, r)
	return nil
}

func buildTransferWorkbook(t *testing.T) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"", "NOM", "ACADÈMIC", "ESTAT"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellStr(sheet, cell, h)
	}
	data := [][]string{
		{"", "Maria Garcia Soler", "va molt bé", "resolt"},
		{"", "* llegenda de colors", "", ""},
		{"", "Desconegut Total Absolut", "cap dada", ""},
		{"", "Maria Garcia Soler", "nota actualitzada", "pendent"},
	}
	for r, row := range data {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+3)
			_ = f.SetCellStr(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("building workbook: %v", err)
	}
	return buf
}

func TestImportTransferWorkbook(t *testing.T) {
	students := &fakeStudentRepo{students: []*domain.Student{
		{ID: uuid.New(), FirstName: "Maria", LastName: "Garcia Soler", IsActive: true},
		{ID: uuid.New(), FirstName: "Anna", LastName: "Puig Vidal", IsActive: true},
	}}
	years := &fakeYearRepo{year: domain.SchoolYear{ID: uuid.New(), Label: "2025-2026", IsCurrent: true}}
	yearly := &fakeYearlyRepo{}
	support := &fakeSupportRepo{}

	svc := NewService(students, years, yearly, support)
	summary, err := svc.Import(context.Background(), buildTransferWorkbook(t), domain.ImportTransfer, domain.EtapaPrimaria, "PRI - traspàs.xlsx")
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if summary.RowsParsed != 4 {
		t.Errorf("rows_parsed = %d, want 4", summary.RowsParsed)
	}
	// One garbage legend, one duplicate collapsed.
	if summary.RowsSkipped != 2 {
		t.Errorf("rows_skipped = %d, want 2", summary.RowsSkipped)
	}
	if summary.RowsMatched != 1 || summary.RowsUpserted != 1 {
		t.Errorf("matched/upserted = %d/%d, want 1/1", summary.RowsMatched, summary.RowsUpserted)
	}
	if len(summary.Unmatched) != 1 || summary.Unmatched[0].Name != "Desconegut Total Absolut" {
		t.Fatalf("unmatched = %+v", summary.Unmatched)
	}
	if !strings.HasPrefix(summary.UnmatchedCSV, "name,sheet,file,data") {
		t.Errorf("unmatched csv missing header: %q", summary.UnmatchedCSV)
	}

	if len(yearly.upserts) != 1 {
		t.Fatalf("yearly upserts = %d, want 1", len(yearly.upserts))
	}
	rec := yearly.upserts[0]
	if rec.StudentID != students.students[0].ID {
		t.Error("record not linked to matched student")
	}
	if rec.SchoolYearID != years.year.ID {
		t.Error("record not scoped to current school year")
	}
	// Duplicate resolution keeps the later row.
	if rec.Academic == nil || *rec.Academic != "nota actualitzada" {
		t.Errorf("academic = %v, want the last duplicate's value", rec.Academic)
	}
	if rec.Estat == nil || *rec.Estat != domain.EstatPendent {
		t.Errorf("estat = %v, want pendent", rec.Estat)
	}

	if len(support.upserts) != 0 {
		t.Error("transfer import must not touch support records")
	}
}

func TestDedupeRowsDropsUnnameableRows(t *testing.T) {
	rows := []domain.ImportRow{
		{Name: "Maria Garcia Soler", Sheet: "first"},
		{Name: "***"},
		{Name: "Maria Garcia Soler", Sheet: "last"},
	}
	got := dedupeRows(rows)
	if len(got) != 1 {
		t.Fatalf("dedupeRows() = %d rows, want symbol-only name dropped and duplicate collapsed", len(got))
	}
	if got[0].Sheet != "last" {
		t.Errorf("sheet = %q, want the last duplicate kept", got[0].Sheet)
	}
}

func TestImportRejectsUnknownType(t *testing.T) {
	svc := NewService(&fakeStudentRepo{}, &fakeYearRepo{}, &fakeYearlyRepo{}, &fakeSupportRepo{})
	if _, err := svc.Import(context.Background(), bytes.NewReader(nil), "bogus", domain.EtapaESO, "x.xlsx"); err == nil {
		t.Fatal("want error for unknown import type")
	}
}
