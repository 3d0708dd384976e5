package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"time"

	gojson "github.com/goccy/go-json"

	"ingest_server/core/domain"
	"ingest_server/core/port/out"
	"ingest_server/core/service/matching"
	"ingest_server/pkg/apperr"
	"ingest_server/pkg/logger"
)

// Service runs workbook imports end to end: parse, match, upsert.
type Service struct {
	students    out.StudentRepository
	schoolYears out.SchoolYearRepository
	yearly      out.YearlyRecordRepository
	support     out.SupportRecordRepository
	log         *logger.Logger
}

func NewService(
	students out.StudentRepository,
	schoolYears out.SchoolYearRepository,
	yearly out.YearlyRecordRepository,
	support out.SupportRecordRepository,
) *Service {
	return &Service{
		students:    students,
		schoolYears: schoolYears,
		yearly:      yearly,
		support:     support,
		log:         logger.WithField("component", "importer"),
	}
}

// Import parses the workbook and reconciles every row against the active
// roster. Per-row failures are counted, never fatal; unmatched names come
// back in the summary for the operator to fix by hand.
func (s *Service) Import(ctx context.Context, r io.Reader, importType, etapa, filename string) (*domain.ImportSummary, error) {
	start := time.Now()

	switch importType {
	case domain.ImportTransfer, domain.ImportSupport:
	default:
		return nil, apperr.InvalidInput("type", "must be transfer or support")
	}
	switch etapa {
	case domain.EtapaInfantil, domain.EtapaPrimaria, domain.EtapaESO:
	default:
		return nil, apperr.InvalidInput("stage", "must be infantil, primaria or eso")
	}

	rows, issues, err := ParseWorkbook(r, importType, etapa, filename)
	if err != nil {
		return nil, err
	}

	summary := &domain.ImportSummary{
		File:       filename,
		Type:       importType,
		RowsParsed: len(rows),
		Issues:     issues,
	}

	// Drop template legends and other non-name artifacts.
	kept := rows[:0]
	for _, row := range rows {
		if matching.IsGarbage(row.Name) {
			summary.RowsSkipped++
			continue
		}
		kept = append(kept, row)
	}

	// The same student appears once per sheet revision; the last row in
	// workbook order is the current one.
	deduped := dedupeRows(kept)
	summary.RowsSkipped += len(kept) - len(deduped)

	roster, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("list active students", err)
	}
	year, err := s.schoolYears.Current(ctx)
	if err != nil {
		return nil, apperr.DatabaseError("resolve current school year", err)
	}

	matcher := matching.NewMatcher(roster)
	for _, row := range deduped {
		student, ok := matcher.Match(row.Name)
		if !ok {
			summary.Unmatched = append(summary.Unmatched, domain.UnmatchedRow{
				Name:  row.Name,
				Sheet: row.Sheet,
				File:  filename,
				Data:  rowData(row),
			})
			continue
		}
		summary.RowsMatched++

		if err := s.upsertRow(ctx, row, student, year); err != nil {
			summary.RowsError++
			s.log.WithError(err).WithField("student", student.ID.String()).Error("row upsert failed")
			continue
		}
		summary.RowsUpserted++
	}

	if len(summary.Unmatched) > 0 {
		summary.UnmatchedCSV = unmatchedCSV(summary.Unmatched)
	}
	summary.DurationMs = time.Since(start).Milliseconds()

	s.log.WithField("file", filename).
		WithField("matched", summary.RowsMatched).
		WithField("unmatched", len(summary.Unmatched)).
		Info("workbook import finished")
	return summary, nil
}

func (s *Service) upsertRow(ctx context.Context, row domain.ImportRow, student *domain.Student, year *domain.SchoolYear) error {
	if row.Transfer != nil {
		row.Transfer.StudentID = student.ID
		row.Transfer.SchoolYearID = year.ID
		return s.yearly.Upsert(ctx, row.Transfer)
	}
	row.Support.StudentID = student.ID
	row.Support.SchoolYearID = year.ID
	return s.support.Upsert(ctx, row.Support)
}

// dedupeRows keeps the last occurrence per normalized name, preserving
// first-seen order. Rows whose name normalizes to nothing are dropped.
func dedupeRows(rows []domain.ImportRow) []domain.ImportRow {
	idx := map[string]int{}
	var out []domain.ImportRow
	for _, row := range rows {
		key := matching.Normalize(matching.CleanName(row.Name))
		if key == "" {
			continue
		}
		if i, seen := idx[key]; seen {
			out[i] = row
			continue
		}
		idx[key] = len(out)
		out = append(out, row)
	}
	return out
}

func rowData(row domain.ImportRow) any {
	if row.Transfer != nil {
		return row.Transfer
	}
	return row.Support
}

// unmatchedCSV renders the unmatched report the operator downloads.
func unmatchedCSV(rows []domain.UnmatchedRow) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"name", "sheet", "file", "data"})
	for _, row := range rows {
		data, err := gojson.Marshal(row.Data)
		if err != nil {
			data = []byte("{}")
		}
		_ = w.Write([]string{row.Name, row.Sheet, row.File, string(data)})
	}
	w.Flush()
	return buf.String()
}
