package domain

import (
	"math"
	"sort"
	"time"
)

type Takeoff struct {
	ID           string        `json:"id"`
	CompanyID    string        `json:"company_id"`
	ProjectID    string        `json:"project_id"`
	Name         string        `json:"name"`
	PlanSheet    string        `json:"plan_sheet"`
	Measurements []Measurement `json:"measurements"`
	Rollup       []RollupLine  `json:"rollup"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type Measurement struct {
	Label            string  `json:"label"`
	Kind             string  `json:"kind"`
	Quantity         float64 `json:"quantity"`
	Unit             string  `json:"unit"`
	WastePercent     float64 `json:"waste_percent"`
	AdjustedQuantity float64 `json:"adjusted_quantity"`
}

// RollupLine sums adjusted quantities sharing a kind and unit.
type RollupLine struct {
	Kind             string  `json:"kind"`
	Unit             string  `json:"unit"`
	Count            int     `json:"count"`
	Quantity         float64 `json:"quantity"`
	AdjustedQuantity float64 `json:"adjusted_quantity"`
}

const (
	KindArea   = "area"
	KindLinear = "linear"
	KindCount  = "count"
	KindVolume = "volume"
)

// Units lists the units accepted for each measurement kind.
var Units = map[string][]string{
	KindArea:   {"sqft", "sqm"},
	KindLinear: {"ft", "m"},
	KindCount:  {"ea"},
	KindVolume: {"cuft", "cuyd", "cum"},
}

func UnitAllowed(kind, unit string) bool {
	for _, u := range Units[kind] {
		if u == unit {
			return true
		}
	}
	return false
}

// Adjusted applies the waste factor, rounded to four decimals.
func (m Measurement) Adjusted() float64 {
	return round4(m.Quantity * (1 + m.WastePercent/100))
}

// Derive fills adjusted quantities and rebuilds the rollup ordered by kind then unit.
func (t *Takeoff) Derive() {
	type key struct{ kind, unit string }
	lines := map[key]*RollupLine{}

	for i := range t.Measurements {
		m := &t.Measurements[i]
		m.AdjustedQuantity = m.Adjusted()

		k := key{m.Kind, m.Unit}
		line, ok := lines[k]
		if !ok {
			line = &RollupLine{Kind: m.Kind, Unit: m.Unit}
			lines[k] = line
		}
		line.Count++
		line.Quantity += m.Quantity
		line.AdjustedQuantity += m.AdjustedQuantity
	}

	t.Rollup = make([]RollupLine, 0, len(lines))
	for _, line := range lines {
		line.Quantity = round4(line.Quantity)
		line.AdjustedQuantity = round4(line.AdjustedQuantity)
		t.Rollup = append(t.Rollup, *line)
	}
	sort.Slice(t.Rollup, func(i, j int) bool {
		if t.Rollup[i].Kind != t.Rollup[j].Kind {
			return t.Rollup[i].Kind < t.Rollup[j].Kind
		}
		return t.Rollup[i].Unit < t.Rollup[j].Unit
	})
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

type SaveTakeoffRequest struct {
	Name         string
	PlanSheet    string
	Measurements []Measurement
}
