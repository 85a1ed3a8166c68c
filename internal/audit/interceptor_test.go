package audit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sosach/internal/database"
	"sosach/internal/model"
	"sosach/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuditTest(t *testing.T, actor *model.User) (*gin.Engine, *Interceptor, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	if actor != nil {
		require.NoError(t, db.Create(actor).Error)
	}

	repo := repository.NewAuditRepository(db)
	detector := NewDetector(db, zap.NewNop())
	interceptor := NewInterceptor(repo, detector, func(*gin.Context) *model.User {
		return actor
	}, zap.NewNop(), Options{})

	router := gin.New()
	router.Use(interceptor.Middleware())
	return router, interceptor, db
}

func testActor() *model.User {
	return &model.User{
		ID:       uuid.New(),
		Username: "binh",
		FullName: "Nguyễn Văn Bình",
		Email:    "binh@example.com",
		Password: "hash",
		Role:     model.RoleMember,
		IsActive: true,
	}
}

func auditLogs(t *testing.T, db *gorm.DB) []model.AuditLog {
	t.Helper()
	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	return logs
}

func TestInterceptorRecordsSuccessfulRequest(t *testing.T) {
	actor := testActor()
	router, interceptor, db := setupAuditTest(t, actor)

	router.POST("/api/books", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"data": gin.H{"id": "b-1", "name": "Sổ trực ban"}})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(`{"name":"Sổ trực ban"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	interceptor.Wait()

	require.Equal(t, http.StatusCreated, w.Code)

	logs := auditLogs(t, db)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, model.ActionCreate, entry.Action)
	assert.Equal(t, model.ResourceBook, entry.Resource)
	assert.Equal(t, "b-1", entry.ResourceID)
	assert.Equal(t, "Sổ trực ban", entry.ResourceName)
	assert.Equal(t, model.AuditStatusSuccess, entry.Status)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, actor.ID, *entry.UserID)
	assert.Contains(t, entry.UserInfo, "Nguyễn Văn Bình")
	assert.Contains(t, entry.NewData, "Sổ trực ban")
	assert.Empty(t, entry.ErrorMessage)
	assert.Contains(t, entry.Metadata, `"status_code":201`)
}

func TestInterceptorRecordsFailure(t *testing.T) {
	router, interceptor, db := setupAuditTest(t, testActor())

	router.DELETE("/api/books/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "book not found"})
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/books/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	interceptor.Wait()

	logs := auditLogs(t, db)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditStatusFailed, logs[0].Status)
	assert.Equal(t, "book not found", logs[0].ErrorMessage)
	assert.Equal(t, model.ActionDelete, logs[0].Action)
}

func TestInterceptorAnonymousRequestNotRecorded(t *testing.T) {
	router, interceptor, db := setupAuditTest(t, nil)

	router.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password"})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"x","password":"y"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	interceptor.Wait()

	assert.Empty(t, auditLogs(t, db), "failed logins leave no audit record")
}

func TestInterceptorRecordsLogin(t *testing.T) {
	actor := testActor()
	router, interceptor, db := setupAuditTest(t, actor)

	router.POST("/api/auth/login", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"access_token": "t"}})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"binh","password":"secret"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	interceptor.Wait()

	logs := auditLogs(t, db)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionLogin, logs[0].Action)
	assert.Equal(t, model.ResourceAuth, logs[0].Resource)
	assert.Equal(t, "Đăng nhập vào hệ thống", logs[0].Description)
	// Credentials from the login body must never be stored.
	assert.NotContains(t, logs[0].NewData, "secret")
}

func TestInterceptorSkipsConfiguredPaths(t *testing.T) {
	router, interceptor, db := setupAuditTest(t, testActor())

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "OK"}) })
	router.GET("/swagger/index.html", func(c *gin.Context) { c.String(http.StatusOK, "docs") })

	for _, path := range []string{"/health", "/swagger/index.html"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
	interceptor.Wait()

	assert.Empty(t, auditLogs(t, db))
}

func TestInterceptorCapturesOldDataOnUpdate(t *testing.T) {
	actor := testActor()
	router, interceptor, db := setupAuditTest(t, actor)

	book := model.Book{Name: "Sổ trực ban", Code: "TB-01", Frequency: model.BookFrequencyDaily, CreatedBy: actor.ID}
	require.NoError(t, db.Create(&book).Error)

	// The handler overwrites the row before responding, so the old name only
	// survives in the snapshot taken ahead of it.
	router.PUT("/api/books/:id", func(c *gin.Context) {
		require.NoError(t, db.Model(&model.Book{}).Where("id = ?", c.Param("id")).
			Update("name", "Sổ trực chỉ huy").Error)
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"id": book.ID.String()}})
	})

	req := httptest.NewRequest(http.MethodPut, "/api/books/"+book.ID.String(), strings.NewReader(`{"name":"Sổ trực chỉ huy"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	interceptor.Wait()

	var updated model.Book
	require.NoError(t, db.First(&updated, "id = ?", book.ID).Error)
	require.Equal(t, "Sổ trực chỉ huy", updated.Name)

	logs := auditLogs(t, db)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].OldData, "Sổ trực ban")
	assert.NotContains(t, logs[0].OldData, "Sổ trực chỉ huy")
	assert.Contains(t, logs[0].NewData, "Sổ trực chỉ huy")
}

func TestInterceptorCapturesOldDataOnDelete(t *testing.T) {
	actor := testActor()
	router, interceptor, db := setupAuditTest(t, actor)

	book := model.Book{Name: "Sổ công tác", Code: "CT-01", Frequency: model.BookFrequencyDaily, CreatedBy: actor.ID}
	require.NoError(t, db.Create(&book).Error)

	router.DELETE("/api/books/:id", func(c *gin.Context) {
		require.NoError(t, db.Delete(&model.Book{}, "id = ?", c.Param("id")).Error)
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/books/"+book.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	interceptor.Wait()

	var count int64
	require.NoError(t, db.Model(&model.Book{}).Where("id = ?", book.ID).Count(&count).Error)
	require.Zero(t, count, "the row is gone by the time the record is written")

	logs := auditLogs(t, db)
	require.Len(t, logs, 1)
	assert.Equal(t, model.ActionDelete, logs[0].Action)
	assert.Contains(t, logs[0].OldData, "Sổ công tác")
	assert.Equal(t, "Sổ công tác", logs[0].ResourceName)
}

func TestInterceptorResponseUnchanged(t *testing.T) {
	router, interceptor, _ := setupAuditTest(t, testActor())

	router.GET("/api/books", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{"a", "b"}})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	interceptor.Wait()

	assert.JSONEq(t, `{"data":["a","b"]}`, w.Body.String())
}
