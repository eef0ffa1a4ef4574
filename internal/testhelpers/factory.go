package testhelpers

import (
	"context"
	"fmt"

	"accounts/internal/models"

	"github.com/glebarez/sqlite"
	g "github.com/onsi/gomega"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB opens an in-memory sqlite database holding the companies table.
func OpenTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	g.Expect(err).NotTo(g.HaveOccurred())

	// Every connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	g.Expect(err).NotTo(g.HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	g.Expect(db.AutoMigrate(&models.Company{})).To(g.Succeed())
	return db
}

// CleanupDB truncates every table of a postgres database.
func CleanupDB(db *gorm.DB) {
	var tables []string

	err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error
	g.Expect(err).NotTo(g.HaveOccurred())

	for _, table := range tables {
		if table == "schema_migrations" {
			continue
		}

		query := fmt.Sprintf("TRUNCATE TABLE \"%s\" RESTART IDENTITY CASCADE", table)
		err := db.Exec(query).Error
		g.Expect(err).NotTo(g.HaveOccurred(), "Failed to truncate table: "+table)
	}
}

// CreateCompany inserts company, defaulting it to a qualifying FULL/Active row.
func CreateCompany(db *gorm.DB, company *models.Company) *models.Company {
	if company.AccountsCategory == "" {
		company.AccountsCategory = models.AccountsCategoryFull
	}
	if company.Status == "" {
		company.Status = models.StatusActive
	}
	if company.Name == "" {
		company.Name = "Company " + company.Number
	}

	result := gorm.WithResult()
	g.Expect(gorm.G[models.Company](db, result).Create(context.Background(), company)).To(g.Succeed())
	g.Expect(result.RowsAffected).To(g.Equal(int64(1)))
	return company
}

// FindCompany reloads the company with id.
func FindCompany(db *gorm.DB, id uint) models.Company {
	company, err := gorm.G[models.Company](db).Where("id = ?", id).First(context.Background())
	g.Expect(err).NotTo(g.HaveOccurred())
	return company
}
