package services

import (
	"path/filepath"
	"testing"

	"learnify/backend/config"
	"learnify/backend/models"
	"learnify/backend/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := utils.InitDB(&config.Config{
		DBDriver: config.DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "services.db"),
	})
	require.NoError(t, err)
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, PasswordHash: "x", Role: models.RoleLearner, Name: "Learner"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func seedCourse(t *testing.T, db *gorm.DB, c models.Course) models.Course {
	t.Helper()
	require.NoError(t, db.Create(&c).Error)
	return c
}
