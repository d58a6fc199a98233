package database

import (
	"github.com/eventhost/pulse/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.Account{},
	&models.Announcement{},
	&models.Question{},
	&models.Answer{},
	&models.Poll{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(
		append(
			AutoMaintainRange,
			&models.PollVote{},
		)...,
	); err != nil {
		return err
	}

	return nil
}
