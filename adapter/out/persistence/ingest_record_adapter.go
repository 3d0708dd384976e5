package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ingest_server/core/domain"
)

// ===== Yearly Record Adapter =====

type YearlyRecordAdapter struct {
	db *sqlx.DB
}

func NewYearlyRecordAdapter(db *sqlx.DB) *YearlyRecordAdapter {
	return &YearlyRecordAdapter{db: db}
}

// Upsert writes a transfer record keyed by (student, school year). A new
// import for the same year replaces the previous content wholesale.
func (a *YearlyRecordAdapter) Upsert(ctx context.Context, r *domain.YearlyRecord) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO yearly_records (id, student_id, school_year_id, graella_nese,
		        curs_repeticio, dades_familiars, academic, comportament,
		        acords_tutoria, estat, observacions, source_sheet, source_file,
		        created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (student_id, school_year_id) DO UPDATE SET
			graella_nese    = EXCLUDED.graella_nese,
			curs_repeticio  = EXCLUDED.curs_repeticio,
			dades_familiars = EXCLUDED.dades_familiars,
			academic        = EXCLUDED.academic,
			comportament    = EXCLUDED.comportament,
			acords_tutoria  = EXCLUDED.acords_tutoria,
			estat           = EXCLUDED.estat,
			observacions    = EXCLUDED.observacions,
			source_sheet    = EXCLUDED.source_sheet,
			source_file     = EXCLUDED.source_file,
			updated_at      = NOW()`,
		uuid.New(), r.StudentID, r.SchoolYearID, r.GraellaNese,
		r.CursRepeticio, r.DadesFamiliars, r.Academic, r.Comportament,
		r.AcordsTutoria, r.Estat, r.Observacions, r.SourceSheet, r.SourceFile)
	return err
}

// ===== Support Record Adapter =====

type SupportRecordAdapter struct {
	db *sqlx.DB
}

func NewSupportRecordAdapter(db *sqlx.DB) *SupportRecordAdapter {
	return &SupportRecordAdapter{db: db}
}

func (a *SupportRecordAdapter) Upsert(ctx context.Context, r *domain.SupportRecord) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO support_records (id, student_id, school_year_id,
		        data_incorporacio, escolaritzacio_previa, informe_eap, cad,
		        informe_diagnostic, curs_retencio, nise, ssd, mesura_nese,
		        reunio_poe, reunio_mesi, reunio_eap, materies_pi, eixos_pi,
		        nac_pi, nac_final, serveis_externs, beca_mec,
		        observacions_curs, dades_rellevants_historic,
		        source_sheet, source_file, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, NOW(), NOW())
		ON CONFLICT (student_id, school_year_id) DO UPDATE SET
			data_incorporacio         = EXCLUDED.data_incorporacio,
			escolaritzacio_previa     = EXCLUDED.escolaritzacio_previa,
			informe_eap               = EXCLUDED.informe_eap,
			cad                       = EXCLUDED.cad,
			informe_diagnostic        = EXCLUDED.informe_diagnostic,
			curs_retencio             = EXCLUDED.curs_retencio,
			nise                      = EXCLUDED.nise,
			ssd                       = EXCLUDED.ssd,
			mesura_nese               = EXCLUDED.mesura_nese,
			reunio_poe                = EXCLUDED.reunio_poe,
			reunio_mesi               = EXCLUDED.reunio_mesi,
			reunio_eap                = EXCLUDED.reunio_eap,
			materies_pi               = EXCLUDED.materies_pi,
			eixos_pi                  = EXCLUDED.eixos_pi,
			nac_pi                    = EXCLUDED.nac_pi,
			nac_final                 = EXCLUDED.nac_final,
			serveis_externs           = EXCLUDED.serveis_externs,
			beca_mec                  = EXCLUDED.beca_mec,
			observacions_curs         = EXCLUDED.observacions_curs,
			dades_rellevants_historic = EXCLUDED.dades_rellevants_historic,
			source_sheet              = EXCLUDED.source_sheet,
			source_file               = EXCLUDED.source_file,
			updated_at                = NOW()`,
		uuid.New(), r.StudentID, r.SchoolYearID,
		r.DataIncorporacio, r.EscolaritzacioPrevia, r.InformeEAP, r.CAD,
		r.InformeDiagnostic, r.CursRetencio, r.Nise, r.SSD, r.MesuraNese,
		r.ReunioPOE, r.ReunioMESI, r.ReunioEAP, r.MateriesPI, r.EixosPI,
		r.NacPI, r.NacFinal, r.ServeisExterns, r.BecaMec,
		r.ObservacionsCurs, r.DadesRellevantsHistoric,
		r.SourceSheet, r.SourceFile)
	return err
}
