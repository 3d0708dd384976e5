package http

import (
	"github.com/gofiber/fiber/v2"

	"ingest_server/core/service/importer"
	"ingest_server/pkg/apperr"
)

type ImportHandler struct {
	svc *importer.Service
}

func NewImportHandler(svc *importer.Service) *ImportHandler {
	return &ImportHandler{svc: svc}
}

func (h *ImportHandler) Register(app fiber.Router) {
	app.Post("/imports", h.ImportWorkbook)
}

// ImportWorkbook ingests one uploaded spreadsheet. Multipart form:
// "file" is the workbook, "type" selects the parser (transfer or
// support), "stage" is the school stage for support workbooks.
func (h *ImportHandler) ImportWorkbook(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrorResponse(c, 400, "missing file upload")
	}

	importType := c.FormValue("type")
	stage := c.FormValue("stage")

	file, err := fileHeader.Open()
	if err != nil {
		return InternalErrorResponse(c, err, "open upload")
	}
	defer file.Close()

	summary, err := h.svc.Import(c.Context(), file, importType, stage, fileHeader.Filename)
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "import workbook")
	}

	return SuccessResponse(c, summary)
}
