package domain

import (
	"time"

	"github.com/google/uuid"
)

// Resolution state of a yearly transfer record.
const (
	EstatResolt  = "resolt"
	EstatPendent = "pendent"
)

// EAP report categories.
const (
	InformeEAPSense       = "sense_informe"
	InformeEAPNeseAnnex1  = "nese_annex1"
	InformeEAPNeeAnnex1i2 = "nee_annex1i2"
)

// Support measure categories. The bare "pi" value exists for sheets that
// do not say which kind.
const (
	MesuraPICurricular   = "pi_curricular"
	MesuraPINoCurricular = "pi_no_curricular"
	MesuraPINouvingut    = "pi_nouvingut"
	MesuraDUAMisu        = "dua_misu"
	MesuraNoMesures      = "no_mesures"
	MesuraPI             = "pi"
)

// NISE registration states.
const (
	NiseNise = "nise"
	NiseSLS  = "sls"
	NiseNo   = "no"
)

// MEC grant application states.
const (
	BecaSollicitadaCursActual = "sollicitada_curs_actual"
	BecaCandidatProperCurs    = "candidat_proper_curs"
	BecaNoCandidatMec         = "no_candidat_mec"
)

// YearlyRecord holds the free-text transfer notes a tutor writes for one
// student in one school year. Every content field is nullable; sheets are
// sparse and an empty cell means "not filled in", not "empty string".
type YearlyRecord struct {
	ID           uuid.UUID `json:"id"`
	StudentID    uuid.UUID `json:"student_id"`
	SchoolYearID uuid.UUID `json:"school_year_id"`

	GraellaNese     *bool   `json:"graella_nese,omitempty"`
	CursRepeticio   *string `json:"curs_repeticio,omitempty"`
	DadesFamiliars  *string `json:"dades_familiars,omitempty"`
	Academic        *string `json:"academic,omitempty"`
	Comportament    *string `json:"comportament,omitempty"`
	AcordsTutoria   *string `json:"acords_tutoria,omitempty"`
	Estat           *string `json:"estat,omitempty"`
	Observacions    *string `json:"observacions,omitempty"`
	SourceSheet     string  `json:"source_sheet"`
	SourceFile      string  `json:"source_file"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SupportRecord holds the structured special-needs tracking fields for one
// student in one school year.
type SupportRecord struct {
	ID           uuid.UUID `json:"id"`
	StudentID    uuid.UUID `json:"student_id"`
	SchoolYearID uuid.UUID `json:"school_year_id"`

	DataIncorporacio        *string `json:"data_incorporacio,omitempty"`
	EscolaritzacioPrevia    *string `json:"escolaritzacio_previa,omitempty"`
	InformeEAP              *string `json:"informe_eap,omitempty"`
	CAD                     *string `json:"cad,omitempty"`
	InformeDiagnostic       *string `json:"informe_diagnostic,omitempty"`
	CursRetencio            *string `json:"curs_retencio,omitempty"`
	Nise                    *string `json:"nise,omitempty"`
	SSD                     *bool   `json:"ssd,omitempty"`
	MesuraNese              *string `json:"mesura_nese,omitempty"`
	ReunioPOE               *bool   `json:"reunio_poe,omitempty"`
	ReunioMESI              *bool   `json:"reunio_mesi,omitempty"`
	ReunioEAP               *bool   `json:"reunio_eap,omitempty"`
	MateriesPI              *string `json:"materies_pi,omitempty"`
	EixosPI                 *string `json:"eixos_pi,omitempty"`
	NacPI                   *string `json:"nac_pi,omitempty"`
	NacFinal                *string `json:"nac_final,omitempty"`
	ServeisExterns          *string `json:"serveis_externs,omitempty"`
	BecaMec                 *string `json:"beca_mec,omitempty"`
	ObservacionsCurs        *string `json:"observacions_curs,omitempty"`
	DadesRellevantsHistoric *string `json:"dades_rellevants_historic,omitempty"`
	SourceSheet             string  `json:"source_sheet"`
	SourceFile              string  `json:"source_file"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
