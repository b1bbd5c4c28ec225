package model

import "time"

// NotificationType identifies what triggered a notification.
type NotificationType string

// Notification type constants.
const (
	NotificationBudget    NotificationType = "Budget"
	NotificationGoal      NotificationType = "Goal"
	NotificationRecurring NotificationType = "Recurring"
	NotificationBill      NotificationType = "Bill"
	NotificationLoan      NotificationType = "Loan"
	NotificationHealth    NotificationType = "Health"
)

// Notification is a synthesized alert. RelatedID scopes deduplication to
// the triggering entity and, for dated alerts, the specific occurrence.
type Notification struct {
	Date      time.Time        `json:"date"`
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	RelatedID string           `json:"relatedId"`
	IsRead    bool             `json:"isRead"`
}
