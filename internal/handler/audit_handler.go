package handler

import (
	"net/http"
	"time"

	"sosach/internal/middleware"
	"sosach/internal/model"
	"sosach/internal/repository"
	"sosach/internal/service"
	"sosach/pkg/pagination"
	"sosach/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService service.AuditService
	auth         gin.HandlerFunc
}

func NewAuditHandler(auditService service.AuditService, auth gin.HandlerFunc) *AuditHandler {
	return &AuditHandler{auditService: auditService, auth: auth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	logs := router.Group("/api/audit-logs", h.auth, middleware.RequireRole(model.RoleAdmin))
	{
		logs.GET("", h.List)
	}
}

// List returns filtered audit records for the admin activity screen
// @Summary      List audit logs
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action    query     string  false  "Action code, e.g. CREATE"
// @Param        resource  query     string  false  "Resource code, e.g. BOOK"
// @Param        status    query     string  false  "SUCCESS or FAILED"
// @Param        user_id   query     string  false  "Actor ID"
// @Param        from      query     string  false  "RFC3339 lower bound"
// @Param        to        query     string  false  "RFC3339 upper bound"
// @Success      200       {object}  response.Response{data=response.ListData}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.AuditFilter{
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
		Status:   c.Query("status"),
	}
	if userID, err := uuid.Parse(c.Query("user_id")); err == nil {
		filter.UserID = &userID
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), filter, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, logs, total, p.Page, p.Limit))
}
