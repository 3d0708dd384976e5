package importer

import (
	"io"

	"github.com/xuri/excelize/v2"

	"ingest_server/core/domain"
	"ingest_server/pkg/apperr"
	"ingest_server/pkg/logger"
)

// ParseWorkbook opens an xlsx stream and parses every sheet with the
// parser for the given import type. A sheet whose layout cannot be
// recognized produces an issue; the rest of the workbook still parses.
func ParseWorkbook(r io.Reader, importType, etapa, filename string) ([]domain.ImportRow, []domain.SheetIssue, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, apperr.BadRequest("could not open workbook: " + err.Error())
	}
	defer f.Close()

	var (
		rows   []domain.ImportRow
		issues []domain.SheetIssue
	)
	for _, sheetName := range f.GetSheetList() {
		raw, err := f.GetRows(sheetName)
		if err != nil {
			issues = append(issues, domain.SheetIssue{Sheet: sheetName, Reason: "could not read rows: " + err.Error()})
			continue
		}
		g := &grid{name: sheetName, rows: raw}

		var (
			parsed []domain.ImportRow
			issue  *domain.SheetIssue
		)
		switch importType {
		case domain.ImportTransfer:
			parsed, issue = parseTransferSheet(g, filename)
		case domain.ImportSupport:
			parsed, issue = parseSupportSheet(g, etapa, filename)
		default:
			return nil, nil, apperr.InvalidInput("type", "must be transfer or support")
		}

		if issue != nil {
			logger.Default().WithField("sheet", sheetName).Warn("sheet skipped: " + issue.Reason)
			issues = append(issues, *issue)
			continue
		}
		rows = append(rows, parsed...)
	}
	return rows, issues, nil
}
