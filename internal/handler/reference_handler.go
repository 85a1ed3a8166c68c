package handler

import (
	"net/http"

	"sosach/internal/middleware"
	"sosach/internal/model"
	"sosach/internal/service"
	"sosach/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReferenceHandler serves the rank, unit, department and position catalogs.
type ReferenceHandler struct {
	referenceService service.ReferenceService
	auth             gin.HandlerFunc
}

func NewReferenceHandler(referenceService service.ReferenceService, auth gin.HandlerFunc) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService, auth: auth}
}

func (h *ReferenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := middleware.RequireRole(model.RoleAdmin)

	ranks := router.Group("/api/ranks", h.auth)
	{
		ranks.GET("", h.ListRanks)
		ranks.POST("", admin, h.CreateRank)
		ranks.PUT("/:id", admin, h.UpdateRank)
		ranks.DELETE("/:id", admin, h.DeleteRank)
	}

	units := router.Group("/api/units", h.auth)
	{
		units.GET("", h.ListUnits)
		units.POST("", admin, h.CreateUnit)
		units.PUT("/:id", admin, h.UpdateUnit)
		units.DELETE("/:id", admin, h.DeleteUnit)
	}

	departments := router.Group("/api/departments", h.auth)
	{
		departments.GET("", h.ListDepartments)
		departments.POST("", admin, h.CreateDepartment)
		departments.PUT("/:id", admin, h.UpdateDepartment)
		departments.DELETE("/:id", admin, h.DeleteDepartment)
	}

	positions := router.Group("/api/positions", h.auth)
	{
		positions.GET("", h.ListPositions)
		positions.POST("", admin, h.CreatePosition)
		positions.PUT("/:id", admin, h.UpdatePosition)
		positions.DELETE("/:id", admin, h.DeletePosition)
	}
}

// @Summary  List ranks
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Success  200  {object}  response.Response{data=[]model.Rank}
// @Router   /api/ranks [get]
func (h *ReferenceHandler) ListRanks(c *gin.Context) {
	ranks, err := h.referenceService.ListRanks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, ranks))
}

// @Summary  Create rank
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Success  201  {object}  response.Response{data=model.Rank}
// @Router   /api/ranks [post]
func (h *ReferenceHandler) CreateRank(c *gin.Context) {
	var rank model.Rank
	if err := c.ShouldBindJSON(&rank); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	if err := h.referenceService.CreateRank(c.Request.Context(), &rank); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, rank))
}

// @Summary  Update rank
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Router   /api/ranks/{id} [put]
func (h *ReferenceHandler) UpdateRank(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return
	}
	var rank model.Rank
	if err := c.ShouldBindJSON(&rank); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	rank.ID = id
	if err := h.referenceService.UpdateRank(c.Request.Context(), &rank); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rank))
}

// @Summary  Delete rank
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Router   /api/ranks/{id} [delete]
func (h *ReferenceHandler) DeleteRank(c *gin.Context) {
	if err := h.referenceService.DeleteRank(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "rank deleted"}))
}

// @Summary  List units
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Success  200  {object}  response.Response{data=[]model.Unit}
// @Router   /api/units [get]
func (h *ReferenceHandler) ListUnits(c *gin.Context) {
	units, err := h.referenceService.ListUnits(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, units))
}

// @Summary  Create unit
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Router   /api/units [post]
func (h *ReferenceHandler) CreateUnit(c *gin.Context) {
	var unit model.Unit
	if err := c.ShouldBindJSON(&unit); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	if err := h.referenceService.CreateUnit(c.Request.Context(), &unit); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, unit))
}

// @Summary  Update unit
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Router   /api/units/{id} [put]
func (h *ReferenceHandler) UpdateUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return
	}
	var unit model.Unit
	if err := c.ShouldBindJSON(&unit); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	unit.ID = id
	if err := h.referenceService.UpdateUnit(c.Request.Context(), &unit); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// @Summary  Delete unit
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Router   /api/units/{id} [delete]
func (h *ReferenceHandler) DeleteUnit(c *gin.Context) {
	if err := h.referenceService.DeleteUnit(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "unit deleted"}))
}

// @Summary  List departments
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Success  200  {object}  response.Response{data=[]model.Department}
// @Router   /api/departments [get]
func (h *ReferenceHandler) ListDepartments(c *gin.Context) {
	departments, err := h.referenceService.ListDepartments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, departments))
}

// @Summary  Create department
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Router   /api/departments [post]
func (h *ReferenceHandler) CreateDepartment(c *gin.Context) {
	var department model.Department
	if err := c.ShouldBindJSON(&department); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	if err := h.referenceService.CreateDepartment(c.Request.Context(), &department); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, department))
}

// @Summary  Update department
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Router   /api/departments/{id} [put]
func (h *ReferenceHandler) UpdateDepartment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return
	}
	var department model.Department
	if err := c.ShouldBindJSON(&department); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	department.ID = id
	if err := h.referenceService.UpdateDepartment(c.Request.Context(), &department); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, department))
}

// @Summary  Delete department
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Router   /api/departments/{id} [delete]
func (h *ReferenceHandler) DeleteDepartment(c *gin.Context) {
	if err := h.referenceService.DeleteDepartment(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "department deleted"}))
}

// @Summary  List positions
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Success  200  {object}  response.Response{data=[]model.Position}
// @Router   /api/positions [get]
func (h *ReferenceHandler) ListPositions(c *gin.Context) {
	positions, err := h.referenceService.ListPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, positions))
}

// @Summary  Create position
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Router   /api/positions [post]
func (h *ReferenceHandler) CreatePosition(c *gin.Context) {
	var position model.Position
	if err := c.ShouldBindJSON(&position); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	if err := h.referenceService.CreatePosition(c.Request.Context(), &position); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, position))
}

// @Summary  Update position
// @Tags     references
// @Security BearerAuth
// @Accept   json
// @Produce  json
// @Router   /api/positions/{id} [put]
func (h *ReferenceHandler) UpdatePosition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid id"))
		return
	}
	var position model.Position
	if err := c.ShouldBindJSON(&position); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}
	position.ID = id
	if err := h.referenceService.UpdatePosition(c.Request.Context(), &position); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, position))
}

// @Summary  Delete position
// @Tags     references
// @Security BearerAuth
// @Produce  json
// @Router   /api/positions/{id} [delete]
func (h *ReferenceHandler) DeletePosition(c *gin.Context) {
	if err := h.referenceService.DeletePosition(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "position deleted"}))
}
