// Package pricing computes the rupee cost of a booking.  Every function is
// pure; scheduling and persistence never leak in here.
package pricing

// Rupee rates and thresholds.  The dehydration rate is a step function:
// the entire quantity is charged at the rate selected by the volume
// threshold, not per tier.
const (
    TrayRateStandard    = 350 // per tray below the volume threshold
    TrayRateVolume      = 300 // per tray at or above the threshold
    VolumeThresholdTrays = 6

    PacketRate = 10 // plain packing, per packet

    VacuumRateStandard  = 30 // vacuum packing, per packet
    VacuumRateBulk      = 25 // per packet once a line exceeds the bulk threshold
    VacuumBulkThreshold = 10 // packets per dish line

    FreezeDriedRatePerGram = 2
    FreezeDriedMinGrams    = 50 // smallest packet weight accepted
)

// Breakdown is the itemized cost of a booking.  CreditApplied is the
// portion of the subtotal covered by cancellation credits.
type Breakdown struct {
    Dehydration   int `json:"dehydration_cost"`
    Packing       int `json:"packing_cost"`
    Vacuum        int `json:"vacuum_cost"`
    FreezeDried   int `json:"freeze_dried_cost"`
    Subtotal      int `json:"subtotal"`
    CreditApplied int `json:"applied_credit"`
    Total         int `json:"total_cost"`
}

// DehydrationCost charges every tray at the standard rate below the volume
// threshold and every tray at the volume rate once the count reaches it.
func DehydrationCost(trays int) int {
    if trays <= 0 {
        return 0
    }
    if trays < VolumeThresholdTrays {
        return trays * TrayRateStandard
    }
    return trays * TrayRateVolume
}

// PackingCost charges the flat per-packet rate.
func PackingCost(packets int) int {
    if packets <= 0 {
        return 0
    }
    return packets * PacketRate
}

// VacuumCost sums the vacuum charge across dish lines.  Each line is rated
// independently: lines above the bulk threshold get the bulk rate for all
// of their packets.
func VacuumCost(linePackets []int) int {
    total := 0
    for _, packets := range linePackets {
        if packets <= 0 {
            continue
        }
        rate := VacuumRateStandard
        if packets > VacuumBulkThreshold {
            rate = VacuumRateBulk
        }
        total += packets * rate
    }
    return total
}

// FreezeDriedCost charges per gram.  Packets lighter than the minimum
// weight are not produced and cost nothing.
func FreezeDriedCost(packets, gramsPerPacket int) int {
    if packets <= 0 || gramsPerPacket < FreezeDriedMinGrams {
        return 0
    }
    return packets * gramsPerPacket * FreezeDriedRatePerGram
}

// Quote assembles the full breakdown.  availableCredit is the customer's
// redeemable credit balance; it is applied only up to the subtotal, and
// the total never goes negative.
func Quote(trays, packets int, vacuumLinePackets []int, fdPackets, fdGrams, availableCredit int) Breakdown {
    b := Breakdown{
        Dehydration: DehydrationCost(trays),
        Packing:     PackingCost(packets),
        Vacuum:      VacuumCost(vacuumLinePackets),
        FreezeDried: FreezeDriedCost(fdPackets, fdGrams),
    }
    b.Subtotal = b.Dehydration + b.Packing + b.Vacuum + b.FreezeDried
    if availableCredit > 0 {
        b.CreditApplied = availableCredit
        if b.CreditApplied > b.Subtotal {
            b.CreditApplied = b.Subtotal
        }
    }
    b.Total = b.Subtotal - b.CreditApplied
    if b.Total < 0 {
        b.Total = 0
    }
    return b
}

// CreditForCancellation returns the credit issued when a booking is
// cancelled: half the subtotal, rounded to the nearest rupee.
func CreditForCancellation(subtotal int) int {
    if subtotal <= 0 {
        return 0
    }
    return (subtotal + 1) / 2
}
