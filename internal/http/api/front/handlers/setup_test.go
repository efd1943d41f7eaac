package handlers

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	dbpkg "github.com/postpilot-cms/postpilot/internal/db"
	"github.com/postpilot-cms/postpilot/internal/models"
	"github.com/postpilot-cms/postpilot/internal/security"
	"gorm.io/gorm"
)

var handlerDBSeq atomic.Int64

func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%d?mode=memory&cache=shared", handlerDBSeq.Add(1))
	conn, errOpen := dbpkg.Open(dsn)
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := dbpkg.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return conn
}

func seedHandlerUser(t *testing.T, conn *gorm.DB, email string, quota int64) *models.User {
	t.Helper()
	hash, errHash := security.HashPassword("password123")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	user := &models.User{
		Email:          email,
		HashedPassword: hash,
		IsActive:       true,
		Quota:          quota,
	}
	if errCreate := conn.Create(user).Error; errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user
}

// withAuthedUser injects the identity keys the auth middleware would set.
func withAuthedUser(id uuid.UUID, superuser bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Set("isSuperuser", superuser)
	}
}

func reloadHandlerUser(t *testing.T, conn *gorm.DB, id uuid.UUID) *models.User {
	t.Helper()
	var user models.User
	if errFind := conn.First(&user, "id = ?", id).Error; errFind != nil {
		t.Fatalf("reload user: %v", errFind)
	}
	return &user
}
