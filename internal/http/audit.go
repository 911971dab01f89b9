package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/audit"
	auditRepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

// GetAuditEvents returns paginated audit events, newest first.
// GET /api/audit?type=&userId=&page=&pageSize=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	page, pageSize := parsePage(c)

	eventType := entities.AuditEventType(c.Query("type"))
	if eventType != "" && !eventType.Valid() {
		respondBadRequest(c, "invalid type")
		return
	}
	userID, ok := parseOptionalQueryID(c, "userId")
	if !ok {
		return
	}

	query := auditRepo.Query{
		EventType: eventType,
		Limit:     pageSize,
		Offset:    entities.Offset(page, pageSize),
	}
	if userID != nil {
		query.UserID = *userID
	}

	events, total, err := ac.auditService.Events(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to load audit events", Code: string(apperr.KindInternal)})
		return
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	c.JSON(http.StatusOK, PaginatedResponse{Data: events, Meta: entities.NewPageMeta(total, page, pageSize)})
}
