package services

import (
	"fmt"
	"strings"

	"github.com/eventhost/pulse/pkg/internal/database"
	"github.com/eventhost/pulse/pkg/internal/models"
)

const EventAnnouncementCreated = "announcementCreated"

func NewAnnouncement(user models.Account, content string) (models.Announcement, error) {
	var announcement models.Announcement

	content = strings.TrimSpace(content)
	if len(content) == 0 {
		return announcement, fmt.Errorf("%w: announcement content cannot be empty", ErrValidation)
	}
	if !user.IsOrganizer() {
		return announcement, fmt.Errorf("%w: only organizers can post announcements", ErrAuthorization)
	}

	announcement = models.Announcement{
		Content:   content,
		AccountID: user.ID,
		Account:   user,
	}

	if err := database.C.Create(&announcement).Error; err != nil {
		return announcement, err
	}

	broadcaster.ToAll(EventAnnouncementCreated, announcement)

	return announcement, nil
}

func ListAnnouncements(limit int) ([]models.Announcement, error) {
	if limit <= 0 {
		limit = 200
	}

	var announcements []models.Announcement
	if err := database.C.
		Preload("Account").
		Order("created_at DESC").
		Limit(limit).
		Find(&announcements).Error; err != nil {
		return announcements, err
	}

	return announcements, nil
}
