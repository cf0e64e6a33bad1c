package domain

import "time"

// Notification is the durable unit of delivery. The id and created_at fields
// are assigned by the store at insert time and never change afterwards.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// NotificationPage is one window of a user's notification history together
// with the effective paging values and the total row count for that user.
// Total counts all rows for the user, not just the returned window.
type NotificationPage struct {
	Items []Notification
	Page  int
	Limit int
	Total int
}
