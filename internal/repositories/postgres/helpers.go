package postgres

import (
	"errors"

	"github.com/SAP-F-2025/career-assessment-service/internal/repositories"
	"gorm.io/gorm"
)

// notFound maps gorm's sentinel to the repository one
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}

// NewRepositories wires the postgres implementations of every repository
func NewRepositories(db *gorm.DB) *repositories.Repositories {
	return &repositories.Repositories{
		Catalog:      NewCatalogPostgreSQL(db),
		Sessions:     NewSessionPostgreSQL(db),
		Responses:    NewResponsePostgreSQL(db),
		ToolPurchase: NewToolPurchasePostgreSQL(db),
	}
}
