package http

import (
	"github.com/gofiber/fiber/v2"

	"ingest_server/core/service/roster"
	"ingest_server/pkg/apperr"
)

type RosterHandler struct {
	svc *roster.Service
}

func NewRosterHandler(svc *roster.Service) *RosterHandler {
	return &RosterHandler{svc: svc}
}

func (h *RosterHandler) Register(app fiber.Router) {
	cron := app.Group("/cron")
	cron.Post("/sync-students", h.SyncStudents)
}

// SyncStudents triggers a full roster reconciliation against the portal.
func (h *RosterHandler) SyncStudents(c *fiber.Ctx) error {
	result, err := h.svc.Sync(c.Context())
	if err != nil {
		if apperr.IsAppError(err) {
			return AppErrorResponse(c, err)
		}
		return InternalErrorResponse(c, err, "sync students")
	}

	return SuccessResponse(c, result)
}
