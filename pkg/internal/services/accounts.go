package services

import (
	"github.com/eventhost/pulse/pkg/internal/database"
	"github.com/eventhost/pulse/pkg/internal/models"
	"gorm.io/gorm/clause"
)

// SyncAccount upserts the identity the auth collaborator handed us, so
// list endpoints can resolve authors into display fields even when the
// account was minted on another node.
func SyncAccount(account models.Account) (models.Account, error) {
	if err := database.C.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "role"}),
	}).Create(&account).Error; err != nil {
		return account, err
	}
	return account, nil
}
