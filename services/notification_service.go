package services

import (
	"checkquest/database"
	"checkquest/models"
	"errors"
)

// Icons referenced by push payloads; served from the static bundle.
const (
	NotificationIcon  = "/static/icons/icon-192.png"
	NotificationBadge = "/static/icons/badge-72.png"
)

// NotificationService serves in-app notifications and their push payloads
type NotificationService struct {
	repo NotificationRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// List returns the user's notifications, newest first
func (ns *NotificationService) List(userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 30
	}
	return ns.repo.ListNotifications(userID, unreadOnly, limit)
}

// MarkRead marks one of the user's notifications as read
func (ns *NotificationService) MarkRead(userID, notificationID string) error {
	err := ns.repo.MarkNotificationRead(userID, notificationID)
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotificationAbsent
	}
	return err
}

// PushPayload renders a notification in the shape the service worker shows
func PushPayload(n models.Notification) models.PushPayload {
	url := n.URL
	if url == "" {
		url = "/"
	}
	return models.PushPayload{
		Title: n.Title,
		Body:  n.Body,
		URL:   url,
		Tag:   n.Tag,
		Icon:  NotificationIcon,
		Badge: NotificationBadge,
	}
}

// PushPayloads renders a batch of notifications
func PushPayloads(ns []models.Notification) []models.PushPayload {
	out := make([]models.PushPayload, 0, len(ns))
	for _, n := range ns {
		out = append(out, PushPayload(n))
	}
	return out
}
