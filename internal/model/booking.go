package model

import "time"

// PaymentStatus tracks the payment lifecycle of a booking.  A booking is
// created as PaymentPending and moves to PaymentCompleted or PaymentFailed
// exactly once; no other transitions are allowed.
type PaymentStatus string

const (
    PaymentPending   PaymentStatus = "pending"
    PaymentCompleted PaymentStatus = "completed"
    PaymentFailed    PaymentStatus = "failed"
)

// BookingStatus tracks the booking lifecycle independently of payment.
// Cancelled is terminal.
type BookingStatus string

const (
    BookingActive    BookingStatus = "active"
    BookingCancelled BookingStatus = "cancelled"
)

// Booking records a customer's (or admin's) claim on a set of numbered
// trays for a single service date.  Tray occupancy is never stored as a
// counter anywhere; it is always derived from active bookings, so a
// cancelled booking frees its trays on the next availability read.
//
// Fields:
//  ID              – opaque hex token, primary key of the bookings row.
//  UserID          – account that owns the booking.
//  ServiceDate     – date the trays are claimed for, formatted YYYY-MM-DD.
//  TrayNumbers     – exact tray numbers claimed, ascending.
//  Dishes          – normalized dish lines (see DishLines).
//  NumPackets      – plain packing packets across all dishes.
//  FreezeDried     – optional freeze-dried add-on (nil when absent).
//  DeliveryMethod  – "pickup" or "delivery".
//  DehydrationCost … TotalCost – rupee cost breakdown captured at creation.
//  AppliedCredit   – cancellation credit consumed by this booking.
//  PaymentStatus   – pending/completed/failed.
//  Status          – active/cancelled.
//  PaymentOrderID  – gateway order reference, set when checkout starts.
//  PaymentRef      – gateway payment id, set on successful verification.
//  AdminCreated    – true when an admin force-created the booking.
type Booking struct {
    ID              string         `json:"id"`
    UserID          uint64         `json:"user_id"`
    ServiceDate     string         `json:"service_date"`
    TrayNumbers     []int          `json:"tray_numbers"`
    Dishes          DishLines      `json:"dishes"`
    NumPackets      int            `json:"num_packets"`
    FreezeDried     *FreezeDried   `json:"freeze_dried,omitempty"`
    DeliveryMethod  string         `json:"delivery_method"`
    DehydrationCost int            `json:"dehydration_cost"`
    PackingCost     int            `json:"packing_cost"`
    VacuumCost      int            `json:"vacuum_cost"`
    FreezeDriedCost int            `json:"freeze_dried_cost"`
    Subtotal        int            `json:"subtotal"`
    AppliedCredit   int            `json:"applied_credit"`
    TotalCost       int            `json:"total_cost"`
    PaymentStatus   PaymentStatus  `json:"payment_status"`
    Status          BookingStatus  `json:"status"`
    PaymentOrderID  *string        `json:"payment_order_id,omitempty"`
    PaymentRef      *string        `json:"payment_ref,omitempty"`
    AdminCreated    bool           `json:"admin_created"`
    CreatedAt       time.Time      `json:"created_at"`
    UpdatedAt       time.Time      `json:"updated_at"`
}

// FreezeDried describes the freeze-dried add-on of a booking.  These
// packets do not count toward the tray pool.
type FreezeDried struct {
    Packets        int `json:"packets"`
    GramsPerPacket int `json:"grams_per_packet"`
}

// TrayCount returns the number of trays claimed by the booking.
func (b *Booking) TrayCount() int { return len(b.TrayNumbers) }

// OccupiesTrays reports whether the booking counts toward derived tray
// occupancy: only paid, non-cancelled bookings hold trays.
func (b *Booking) OccupiesTrays() bool {
    return b.PaymentStatus == PaymentCompleted && b.Status == BookingActive
}
