package http

import (
	"github.com/gofiber/fiber/v2"

	"ingest_server/core/service/pipeline"
	"ingest_server/pkg/apperr"
)

type PipelineHandler struct {
	svc *pipeline.Service
}

func NewPipelineHandler(svc *pipeline.Service) *PipelineHandler {
	return &PipelineHandler{svc: svc}
}

func (h *PipelineHandler) Register(app fiber.Router) {
	cron := app.Group("/cron")
	cron.Post("/process-emails", h.ProcessEmails)
}

type processEmailsRequest struct {
	After      string `json:"after"`
	Before     string `json:"before"`
	MaxResults int    `json:"maxResults"`
}

// ProcessEmails triggers one pipeline run. The body is optional; an empty
// body resumes from the stored cursor.
func (h *PipelineHandler) ProcessEmails(c *fiber.Ctx) error {
	var req processEmailsRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return ErrorResponse(c, 400, "invalid request body")
		}
	}

	result, err := h.svc.Run(c.Context(), pipeline.RunParams{
		After:      req.After,
		Before:     req.Before,
		MaxResults: req.MaxResults,
	})
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "process emails")
	}

	return SuccessResponse(c, result)
}
