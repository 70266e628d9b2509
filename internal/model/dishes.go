package model

import (
    "encoding/json"
    "fmt"
    "sort"
)

// DishLine is the canonical shape of one dish in a booking: a name, the
// number of trays it occupies and the number of packing packets, plus an
// optional vacuum-packing request for that line.
type DishLine struct {
    Name          string `json:"name"`
    Trays         int    `json:"trays"`
    Packets       int    `json:"packets"`
    VacuumPacking bool   `json:"vacuum_packing"`
    VacuumPackets int    `json:"vacuum_packets"`
}

// DishLines is the normalized list of dish lines stored in the bookings
// `dishes` JSON column.  Historical rows carry a legacy map form
// {"dish name": trayCount}; current rows carry the list form.  Decoding
// accepts both and always produces the canonical list, so no caller ever
// branches on the stored shape.
type DishLines []DishLine

// legacy map rows have no stable ordering; sort by name for determinism.
func fromLegacyMap(m map[string]int) DishLines {
    names := make([]string, 0, len(m))
    for name := range m {
        names = append(names, name)
    }
    sort.Strings(names)
    lines := make(DishLines, 0, len(m))
    for _, name := range names {
        lines = append(lines, DishLine{Name: name, Trays: m[name]})
    }
    return lines
}

// UnmarshalJSON normalizes either stored representation into the list form.
func (d *DishLines) UnmarshalJSON(data []byte) error {
    var list []DishLine
    if err := json.Unmarshal(data, &list); err == nil {
        *d = list
        return nil
    }
    var legacy map[string]int
    if err := json.Unmarshal(data, &legacy); err == nil {
        *d = fromLegacyMap(legacy)
        return nil
    }
    return fmt.Errorf("dishes: payload is neither a dish list nor a legacy map")
}

// TotalTrays sums the tray counts across all lines.
func (d DishLines) TotalTrays() int {
    total := 0
    for _, line := range d {
        total += line.Trays
    }
    return total
}

// VacuumLines returns the packet counts of every line with vacuum packing
// enabled, preserving line order.
func (d DishLines) VacuumLines() []int {
    var packets []int
    for _, line := range d {
        if line.VacuumPacking && line.VacuumPackets > 0 {
            packets = append(packets, line.VacuumPackets)
        }
    }
    return packets
}
