package persistence

import (
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/billing"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/client"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/fee"
	"github.com/byununivn-max/eximuni-debit-note/internal/domain/shipment"
	"gorm.io/gorm"
)

// AutoMigrate creates or updates the schema for all aggregates
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&client.Client{},
		&client.ExchangeRate{},
		&client.Template{},
		&client.FeeMapping{},
		&fee.Category{},
		&fee.Item{},
		&shipment.Shipment{},
		&shipment.FeeDetail{},
		&shipment.DuplicateDetection{},
		&billing.DebitNote{},
		&billing.DebitNoteLine{},
		&billing.WorkflowEvent{},
		&billing.ExportRecord{},
	)
}
