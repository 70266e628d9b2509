// Package queue defines message payloads exchanged over the message broker.
package queue

// TrayBookingConfirmedEvent is published when a booking's payment is
// verified. It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type TrayBookingConfirmedEvent struct {
	BookingID      string `json:"booking_id"`
	UserID         uint64 `json:"user_id"`
	ServiceDate    string `json:"service_date"`
	TrayNumbers    []int  `json:"tray_numbers"`
	DeliveryMethod string `json:"delivery_method"`
	TotalCost      int    `json:"total_cost"`
	AppliedCredit  int    `json:"applied_credit"`
	ConfirmedAt    string `json:"confirmed_at"`
}

// DailyReportEvent is published by the notifier with the next service
// day's confirmed bookings so kitchen staff can prepare trays.
type DailyReportEvent struct {
	ServiceDate  string   `json:"service_date"`
	BookingCount int      `json:"booking_count"`
	TraysInUse   []int    `json:"trays_in_use"`
	BookingIDs   []string `json:"booking_ids"`
	GeneratedAt  string   `json:"generated_at"`
}
