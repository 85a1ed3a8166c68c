package handler

import (
	"net/http"

	"sosach/internal/middleware"
	"sosach/internal/model"
	"sosach/internal/repository"
	"sosach/internal/service"
	"sosach/pkg/pagination"
	"sosach/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookHandler struct {
	bookService service.BookService
	auth        gin.HandlerFunc
}

func NewBookHandler(bookService service.BookService, auth gin.HandlerFunc) *BookHandler {
	return &BookHandler{bookService: bookService, auth: auth}
}

func (h *BookHandler) RegisterRoutes(router *gin.RouterGroup) {
	books := router.Group("/api/books", h.auth)
	{
		books.GET("", h.ListBooks)
		books.GET("/:id", h.GetBook)
		books.POST("", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.CreateBook)
		books.PUT("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.UpdateBook)
		books.DELETE("/:id", middleware.RequireRole(model.RoleAdmin), h.DeleteBook)
	}

	entries := router.Group("/api/book-entries", h.auth)
	{
		entries.GET("", h.ListEntries)
		entries.GET("/:id", h.GetEntry)
		entries.POST("", h.CreateEntry)
		entries.PUT("/:id", h.UpdateEntry)
		entries.POST("/:id/submit", h.SubmitEntry)
		entries.POST("/:id/approve", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.ApproveEntry)
		entries.POST("/:id/reject", middleware.RequireRole(model.RoleAdmin, model.RoleCommander), h.RejectEntry)
		entries.DELETE("/:id", h.DeleteEntry)
	}
}

// ListBooks returns a paginated listing of record books
// @Summary      List books
// @Tags         books
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Items per page"
// @Success      200    {object}  response.Response{data=response.ListData}
// @Router       /api/books [get]
func (h *BookHandler) ListBooks(c *gin.Context) {
	p := pagination.Parse(c)
	books, total, err := h.bookService.ListBooks(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to list books: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, books, total, p.Page, p.Limit))
}

// GetBook returns one book by id
// @Summary      Get book
// @Tags         books
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Book ID"
// @Success      200  {object}  response.Response{data=model.Book}
// @Router       /api/books/{id} [get]
func (h *BookHandler) GetBook(c *gin.Context) {
	book, err := h.bookService.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, book))
}

// CreateBook opens a new record book
// @Summary      Create book
// @Tags         books
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.CreateBookRequest  true  "Book"
// @Success      201   {object}  response.Response{data=model.Book}
// @Router       /api/books [post]
func (h *BookHandler) CreateBook(c *gin.Context) {
	var req service.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	book, err := h.bookService.CreateBook(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, book))
}

// UpdateBook edits book metadata
// @Summary      Update book
// @Tags         books
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "Book ID"
// @Param        body  body      service.UpdateBookRequest  true  "Fields"
// @Success      200   {object}  response.Response{data=model.Book}
// @Router       /api/books/{id} [put]
func (h *BookHandler) UpdateBook(c *gin.Context) {
	var req service.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	book, err := h.bookService.UpdateBook(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, book))
}

// DeleteBook soft-deletes a book (admin only)
// @Summary      Delete book
// @Tags         books
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Book ID"
// @Success      200  {object}  response.Response
// @Router       /api/books/{id} [delete]
func (h *BookHandler) DeleteBook(c *gin.Context) {
	if err := h.bookService.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "book deleted"}))
}

// ListEntries returns entries filtered by book, status or author
// @Summary      List entries
// @Tags         entries
// @Security     BearerAuth
// @Produce      json
// @Param        book_id     query     string  false  "Book ID"
// @Param        status      query     string  false  "draft, submitted, approved or rejected"
// @Param        created_by  query     string  false  "Author ID"
// @Success      200         {object}  response.Response{data=response.ListData}
// @Router       /api/book-entries [get]
func (h *BookHandler) ListEntries(c *gin.Context) {
	p := pagination.Parse(c)

	filter := repository.EntryFilter{Status: c.Query("status")}
	if bookID, err := uuid.Parse(c.Query("book_id")); err == nil {
		filter.BookID = &bookID
	}
	if createdBy, err := uuid.Parse(c.Query("created_by")); err == nil {
		filter.CreatedBy = &createdBy
	}

	entries, total, err := h.bookService.ListEntries(c.Request.Context(), filter, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to list entries: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.SuccessList(http.StatusOK, entries, total, p.Page, p.Limit))
}

// GetEntry returns one entry by id
// @Summary      Get entry
// @Tags         entries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.BookEntry}
// @Router       /api/book-entries/{id} [get]
func (h *BookHandler) GetEntry(c *gin.Context) {
	entry, err := h.bookService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// CreateEntry writes a draft entry into a book
// @Summary      Create entry
// @Tags         entries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      service.CreateEntryRequest  true  "Entry"
// @Success      201   {object}  response.Response{data=model.BookEntry}
// @Router       /api/book-entries [post]
func (h *BookHandler) CreateEntry(c *gin.Context) {
	var req service.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	entry, err := h.bookService.CreateEntry(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entry))
}

// UpdateEntry edits a draft or rejected entry
// @Summary      Update entry
// @Tags         entries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "Entry ID"
// @Param        body  body      service.UpdateEntryRequest  true  "Fields"
// @Success      200   {object}  response.Response{data=model.BookEntry}
// @Router       /api/book-entries/{id} [put]
func (h *BookHandler) UpdateEntry(c *gin.Context) {
	var req service.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request: "+err.Error()))
		return
	}

	entry, err := h.bookService.UpdateEntry(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// SubmitEntry moves an entry into review
// @Summary      Submit entry
// @Tags         entries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response{data=model.BookEntry}
// @Router       /api/book-entries/{id}/submit [post]
func (h *BookHandler) SubmitEntry(c *gin.Context) {
	entry, err := h.bookService.SubmitEntry(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// ApproveEntry accepts a submitted entry
// @Summary      Approve entry
// @Tags         entries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "Entry ID"
// @Param        body  body      service.ReviewEntryRequest  false  "Review notes"
// @Success      200   {object}  response.Response{data=model.BookEntry}
// @Router       /api/book-entries/{id}/approve [post]
func (h *BookHandler) ApproveEntry(c *gin.Context) {
	var req service.ReviewEntryRequest
	_ = c.ShouldBindJSON(&req)

	entry, err := h.bookService.ApproveEntry(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Notes)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// RejectEntry sends a submitted entry back to its author
// @Summary      Reject entry
// @Tags         entries
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                      true  "Entry ID"
// @Param        body  body      service.ReviewEntryRequest  false  "Review notes"
// @Success      200   {object}  response.Response{data=model.BookEntry}
// @Router       /api/book-entries/{id}/reject [post]
func (h *BookHandler) RejectEntry(c *gin.Context) {
	var req service.ReviewEntryRequest
	_ = c.ShouldBindJSON(&req)

	entry, err := h.bookService.RejectEntry(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), req.Notes)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entry))
}

// DeleteEntry removes an entry (admin or author)
// @Summary      Delete entry
// @Tags         entries
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entry ID"
// @Success      200  {object}  response.Response
// @Router       /api/book-entries/{id} [delete]
func (h *BookHandler) DeleteEntry(c *gin.Context) {
	if err := h.bookService.DeleteEntry(c.Request.Context(), middleware.CurrentUser(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "entry deleted"}))
}
