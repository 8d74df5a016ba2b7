package analytics

import "time"

// Fallback and synthetic values served when history is too thin to compute
// real statistics. They are kept in one place so the default branches are
// distinguishable from the data-derived ones by construction; the numbers
// themselves come from the dashboard's pre-launch demo dataset.
const (
	// DefaultAvailabilityPct stands in for the 7-day availability when the
	// trailing week holds no events.
	DefaultAvailabilityPct = 40.0

	// DefaultNextHourFreePct stands in for the next-hour prediction when the
	// matching (hour, weekday) bucket has no history.
	DefaultNextHourFreePct = 75.0

	// DefaultRSSI and DefaultSNR are reported before the first event with
	// radio metrics arrives.
	DefaultRSSI = -67
	DefaultSNR  = 8.5

	// DefaultDailyTurnover stands in when no day in the window saw a
	// transition into OCCUPIED.
	DefaultDailyTurnover = 3.5
)

// defaultMonthlyHours pads the front of the monthly series when fewer than
// six months of history exist. The series always has exactly six entries;
// padded entries are synthetic display filler, not data.
var defaultMonthlyHours = [monthlySpan]float64{145, 168, 134, 189, 167, 203}

// defaultHourlyOccupancy is the per-bucket fallback curve for representative
// hours without history.
var defaultHourlyOccupancy = map[int]float64{
	6:  5,
	8:  25,
	10: 45,
	12: 80,
	14: 70,
	16: 60,
	18: 30,
	20: 15,
	22: 8,
}

// Synthetic heatmap schedule: weekday business hours run high, everything
// else low.
const (
	syntheticBusyPct  = 85.0
	syntheticQuietPct = 15.0
)

// syntheticHeatmapValue encodes the known recurring occupancy schedule used
// below the cold-start threshold.
func syntheticHeatmapValue(day time.Weekday, hour int) float64 {
	if day >= time.Monday && day <= time.Friday && hour >= 10 && hour < 18 {
		return syntheticBusyPct
	}
	return syntheticQuietPct
}

// defaultBestSlots pad the best-times list when fewer than two distinct-day
// candidates exist.
var defaultBestSlots = []TimeSlot{
	{Day: "Saturday", Slot: "8AM-10AM", OccupiedPct: syntheticQuietPct},
	{Day: "Sunday", Slot: "8AM-10AM", OccupiedPct: syntheticQuietPct},
}

// defaultPeakSlot is the synthetic peak when no candidate slot has data.
var defaultPeakSlot = TimeSlot{Day: "Friday", Slot: "12PM-2PM", OccupiedPct: 88}
