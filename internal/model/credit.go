package model

import "time"

// CancellationCredit is the time-boxed partial credit issued when a paid
// booking is cancelled.  Amount is fixed at issue time and never changes;
// Used flips from false to true exactly once, in the same transaction as
// the booking that redeems it.
//
// Fields:
//  ID                – opaque hex token, primary key.
//  UserID            – account the credit belongs to.
//  Amount            – rupee value, 50% of the cancelled booking's subtotal.
//  ExpiryDate        – last valid date (YYYY-MM-DD), 6 months after cancellation.
//  Used              – whether the credit has been consumed.
//  OriginalBookingID – booking whose cancellation issued this credit.
//  UsedInBookingID   – booking that consumed this credit (nil until used).
type CancellationCredit struct {
    ID                string    `json:"id"`
    UserID            uint64    `json:"user_id"`
    Amount            int       `json:"amount"`
    ExpiryDate        string    `json:"expiry_date"`
    Used              bool      `json:"used"`
    OriginalBookingID string    `json:"original_booking_id"`
    UsedInBookingID   *string   `json:"used_in_booking_id,omitempty"`
    CreatedAt         time.Time `json:"created_at"`
}
