package domain

// Workbook import types.
const (
	ImportTransfer = "transfer"
	ImportSupport  = "support"
)

// School stages an import can target. The stage decides defaults that
// differ between primary and secondary sheets.
const (
	EtapaInfantil = "infantil"
	EtapaPrimaria = "primaria"
	EtapaESO      = "eso"
)

// ImportRow is one parsed student row from a workbook sheet. Exactly one
// of Transfer or Support is set, matching the import type.
type ImportRow struct {
	Name     string
	Sheet    string
	Transfer *YearlyRecord
	Support  *SupportRecord
}

// UnmatchedRow is a parsed row whose name could not be resolved against
// the roster. It is reported back to the operator, never persisted.
type UnmatchedRow struct {
	Name  string `json:"name"`
	Sheet string `json:"sheet"`
	File  string `json:"file"`
	Data  any    `json:"data"`
}

// SheetIssue is a per-sheet diagnostic (missing header, unrecognized
// layout). Issues never abort the import; remaining sheets still run.
type SheetIssue struct {
	Sheet  string `json:"sheet"`
	Reason string `json:"reason"`
}

// ImportSummary reports the outcome of one workbook import.
type ImportSummary struct {
	File         string         `json:"file"`
	Type         string         `json:"type"`
	RowsParsed   int            `json:"rows_parsed"`
	RowsMatched  int            `json:"rows_matched"`
	RowsUpserted int            `json:"rows_upserted"`
	RowsSkipped  int            `json:"rows_skipped"`
	RowsError    int            `json:"rows_error"`
	Unmatched    []UnmatchedRow `json:"unmatched,omitempty"`
	UnmatchedCSV string         `json:"unmatched_csv,omitempty"`
	Issues       []SheetIssue   `json:"issues,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
}
