package front

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/postpilot-cms/postpilot/internal/config"
	dbpkg "github.com/postpilot-cms/postpilot/internal/db"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/security"
	"gorm.io/gorm"
)

var frontDBSeq atomic.Int64

func setupFrontDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:front_%d?mode=memory&cache=shared", frontDBSeq.Add(1))
	conn, errOpen := dbpkg.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func frontJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:           "front-secret",
		Expiry:           config.Duration(time.Hour),
		ResetTokenExpiry: config.Duration(time.Hour),
	}
}

func newProtectedRouter(conn *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(UserAuthMiddleware(conn, frontJWTConfig(), nil))
	router.GET("/me", func(c *gin.Context) {
		id, _ := c.Get("userID")
		c.JSON(http.StatusOK, gin.H{"id": id.(uuid.UUID)})
	})
	return router
}

func getWithAuth(router *gin.Engine, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestUserAuthMiddlewareMissingHeader(t *testing.T) {
	router := newProtectedRouter(setupFrontDB(t))
	if w := getWithAuth(router, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestUserAuthMiddlewareMalformedHeader(t *testing.T) {
	router := newProtectedRouter(setupFrontDB(t))
	if w := getWithAuth(router, "Token abc"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for non-bearer scheme, got %d", w.Code)
	}
	if w := getWithAuth(router, "Bearer "); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for empty token, got %d", w.Code)
	}
	if w := getWithAuth(router, "Bearer not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for garbage token, got %d", w.Code)
	}
}

func TestUserAuthMiddlewareUnknownUser(t *testing.T) {
	router := newProtectedRouter(setupFrontDB(t))
	token, errToken := security.GenerateToken("front-secret", uuid.New(), "ghost@example.com", time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}
	if w := getWithAuth(router, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for unknown user, got %d", w.Code)
	}
}

func TestUserAuthMiddlewareInactiveUser(t *testing.T) {
	conn := setupFrontDB(t)
	router := newProtectedRouter(conn)

	user := models.User{Email: "inactive@example.com", HashedPassword: "x", IsActive: false, Quota: 10}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	token, errToken := security.GenerateToken("front-secret", user.ID, user.Email, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}
	if w := getWithAuth(router, "Bearer "+token); w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}

func TestUserAuthMiddlewareAllowsActiveUser(t *testing.T) {
	conn := setupFrontDB(t)
	router := newProtectedRouter(conn)

	user := models.User{Email: "active@example.com", HashedPassword: "x", IsActive: true, Quota: 10}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	token, errToken := security.GenerateToken("front-secret", user.ID, user.Email, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}
	w := getWithAuth(router, "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUserAuthMiddlewareRejectsWrongSecret(t *testing.T) {
	conn := setupFrontDB(t)
	router := newProtectedRouter(conn)

	user := models.User{Email: "forged@example.com", HashedPassword: "x", IsActive: true, Quota: 10}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	token, errToken := security.GenerateToken("other-secret", user.ID, user.Email, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}
	if w := getWithAuth(router, "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}
