package domain

import "time"

// NotificationType is the closed set of notification kinds, carried over
// from the dashboard/notification model the distilled scheduling spec
// omitted but the original tool exposed. The Telegram, email and SSE
// senders in this module build their messages directly and do not use it.
type NotificationType string

const (
	NotificationPhaseCompleted   NotificationType = "PHASE_COMPLETED"
	NotificationOrderCompleted   NotificationType = "ORDER_COMPLETED"
	NotificationProductFailed    NotificationType = "PRODUCT_FAILED"
	NotificationDeadlineAtRisk   NotificationType = "DEADLINE_AT_RISK"
	NotificationScheduleProposed NotificationType = "SCHEDULE_PROPOSED"
	NotificationPriorityChanged  NotificationType = "PRIORITY_CHANGED"
	NotificationFactoryFailure   NotificationType = "FACTORY_FAILURE"
)

// Notification is the payload handed to the operator channel and email
// notifier. ImageRef, when set, is an object-store reference (a MinIO
// key) rather than inline bytes.
type Notification struct {
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	ImageRef  string           `json:"image_ref,omitempty"`
	SOID      string           `json:"so_id,omitempty"`
	POID      string           `json:"po_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// DashboardSummary aggregates the state an operator dashboard reads on
// load: counts by status, the soonest deadlines, and the count of
// currently-late orders per the latest approved schedule.
type DashboardSummary struct {
	TotalAccepted     int                `json:"total_accepted"`
	TotalInProgress   int                `json:"total_in_progress"`
	TotalCompleted    int                `json:"total_completed"`
	CountByPriority   map[int]int        `json:"count_by_priority"`
	UpcomingDeadlines []UpcomingDeadline `json:"upcoming_deadlines"`
	ActiveAlerts      int                `json:"active_alerts"`
	LateOrderIDs      []string           `json:"late_order_ids"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// UpcomingDeadline is one row of a DashboardSummary's deadline list.
type UpcomingDeadline struct {
	SalesOrderID string    `json:"sales_order_id"`
	Deadline     time.Time `json:"deadline"`
	Priority     int       `json:"priority"`
}
