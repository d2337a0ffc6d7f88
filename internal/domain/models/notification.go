package models

import "time"

type NotificationType string

const NotificationNewContact NotificationType = "new_contact"

type Notification struct {
	ID        int64
	UserID    int64
	Type      NotificationType
	Title     string
	Message   string
	CreatedAt time.Time
}
