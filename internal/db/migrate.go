package db

import (
	"fmt"

	"github.com/postpilot-cms/postpilot/internal/models"
	"gorm.io/gorm"
)

// Migrate runs schema migrations for all persistent models.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	return conn.AutoMigrate(
		&models.User{},
		&models.SocialAccount{},
		&models.Post{},
		&models.LLMUsage{},
	)
}
