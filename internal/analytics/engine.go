// Package analytics derives every display statistic from the event log on
// each request. The engine holds no state across calls; either a computation
// fully succeeds against the store or a labeled default branch is served.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"parking-status-backend/config"
	"parking-status-backend/internal/clock"
	"parking-status-backend/internal/model"
	"parking-status-backend/internal/store"
)

const (
	// availabilityWindow is the trailing range of the availability figure.
	availabilityWindow = 7 * 24 * time.Hour
	// bucketWindow is the trailing range of every hour/day bucketed
	// statistic, including the next-hour prediction (4 weeks).
	bucketWindow = 28 * 24 * time.Hour
	// monthlySpan is the fixed length of the monthly series.
	monthlySpan = 6

	hourlyFirstHour = 6
	hourlyLastHour  = 22
	hourlyStep      = 2

	heatmapFirstHour = 8
	heatmapLastHour  = 20

	slotFirstHour = 8
	slotLastHour  = 18
	slotWidth     = 2
)

// weekdays fixes the display order of day-bucketed output.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// CurrentStats is the headline figures of the dashboard.
type CurrentStats struct {
	TotalEvents     int64   `json:"totalEvents"`
	HoursThisMonth  float64 `json:"hoursThisMonth"`
	RSSI            int     `json:"rssi"`
	SNR             float64 `json:"snr"`
	AvailabilityPct float64 `json:"availabilityPct"`
	NextHourFreePct float64 `json:"nextHourFreePct"`
}

// MonthlyEntry is one month of estimated occupied hours. Synthetic marks
// front-padding served for months without history.
type MonthlyEntry struct {
	Month     string  `json:"month"`
	Hours     float64 `json:"hours"`
	Synthetic bool    `json:"-"`
}

// HourlyPoint is the occupancy fraction of one representative hour.
type HourlyPoint struct {
	Hour        string  `json:"hour"`
	OccupiedPct float64 `json:"occupiedPct"`
}

// HeatmapCell is one day-of-week x hour-of-day occupancy fraction.
type HeatmapCell struct {
	Day         string  `json:"day"`
	Hour        int     `json:"hour"`
	OccupiedPct float64 `json:"occupiedPct"`
}

// Heatmap is the weekly occupancy grid across business display hours.
type Heatmap struct {
	Cells     []HeatmapCell `json:"cells"`
	Synthetic bool          `json:"-"`
}

// TimeSlot is a 2-hour slot recommendation.
type TimeSlot struct {
	Day         string  `json:"day"`
	Slot        string  `json:"slot"`
	OccupiedPct float64 `json:"occupiedPct"`
}

// BestTimesReport carries the slot recommendations and the turnover rate.
type BestTimesReport struct {
	BestTimes     []TimeSlot `json:"bestTimes"`
	PeakTime      TimeSlot   `json:"peakTime"`
	DailyTurnover float64    `json:"dailyTurnover"`
	Synthetic     bool       `json:"-"`
}

// Engine computes derived statistics against the event store.
type Engine struct {
	store         store.Store
	clock         clock.Clock
	offset        time.Duration
	hoursPerEvent float64
	coldStartMin  int64
}

// New creates an analytics engine with the configured constants.
func New(s store.Store, clk clock.Clock, cfg *config.AnalyticsConfig) *Engine {
	return &Engine{
		store:         s,
		clock:         clk,
		offset:        cfg.UTCOffset,
		hoursPerEvent: cfg.OccupiedHoursPerEvent,
		coldStartMin:  cfg.ColdStartMinEvents,
	}
}

// localTime shifts a UTC instant by the fixed configured offset. The result
// is a wall-clock reading for bucketing, still tagged UTC.
func (e *Engine) localTime(t time.Time) time.Time {
	return t.UTC().Add(e.offset)
}

// CurrentStats returns the headline figures: total event count, estimated
// occupied hours this month, newest radio metrics, 7-day availability and
// the next-hour free prediction.
func (e *Engine) CurrentStats(ctx context.Context) (*CurrentStats, error) {
	now := e.clock.Now().UTC()
	local := e.localTime(now)

	total, err := e.store.CountEvents(ctx, store.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("computing total event count: %w", err)
	}

	monthFrom := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC).Add(-e.offset)
	occupiedThisMonth, err := e.store.CountEvents(ctx, store.EventFilter{
		Status: model.StatusOccupied,
		From:   &monthFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("computing monthly occupied count: %w", err)
	}

	rssi, snr := DefaultRSSI, DefaultSNR
	radio, err := e.store.LatestRadioEvent(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching latest radio event: %w", err)
	}
	if radio != nil {
		if radio.RSSI != nil {
			rssi = *radio.RSSI
		}
		if radio.SNR != nil {
			snr = *radio.SNR
		}
	}

	weekFrom := now.Add(-availabilityWindow)
	weekTotal, err := e.store.CountEvents(ctx, store.EventFilter{From: &weekFrom})
	if err != nil {
		return nil, fmt.Errorf("computing 7-day event count: %w", err)
	}
	weekOccupied, err := e.store.CountEvents(ctx, store.EventFilter{
		Status: model.StatusOccupied,
		From:   &weekFrom,
	})
	if err != nil {
		return nil, fmt.Errorf("computing 7-day occupied count: %w", err)
	}
	availability := DefaultAvailabilityPct
	if weekTotal > 0 {
		availability = 100 * float64(weekTotal-weekOccupied) / float64(weekTotal)
	}

	prediction, err := e.nextHourPrediction(ctx, now, local)
	if err != nil {
		return nil, err
	}

	return &CurrentStats{
		TotalEvents:     total,
		HoursThisMonth:  round1(float64(occupiedThisMonth) * e.hoursPerEvent),
		RSSI:            rssi,
		SNR:             snr,
		AvailabilityPct: round1(availability),
		NextHourFreePct: round1(prediction),
	}, nil
}

// nextHourPrediction is the FREE-fraction of historical events in the same
// (hour-of-day, day-of-week) bucket as the upcoming hour, over the trailing
// four weeks.
func (e *Engine) nextHourPrediction(ctx context.Context, now, local time.Time) (float64, error) {
	next := local.Add(time.Hour)
	weekday := next.Weekday()
	from := now.Add(-bucketWindow)

	events, err := e.store.QueryEvents(ctx, store.EventFilter{
		From:      &from,
		Hours:     []int{next.Hour()},
		DayOfWeek: &weekday,
		Offset:    e.offset,
	})
	if err != nil {
		return 0, fmt.Errorf("computing next-hour prediction: %w", err)
	}
	if len(events) == 0 {
		return DefaultNextHourFreePct, nil
	}

	var free int
	for _, ev := range events {
		if ev.Status == model.StatusFree {
			free++
		}
	}
	return 100 * float64(free) / float64(len(events)), nil
}

// MonthlyHours returns estimated occupied hours for the trailing six
// calendar months. The series always has exactly six entries: months before
// the first month with any data are front-padded with the fixed placeholder
// values and flagged synthetic.
func (e *Engine) MonthlyHours(ctx context.Context) ([]MonthlyEntry, error) {
	now := e.clock.Now().UTC()
	local := e.localTime(now)
	currentMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)

	var (
		labels [monthlySpan]string
		counts [monthlySpan]int64
	)
	for i := 0; i < monthlySpan; i++ {
		start := currentMonth.AddDate(0, i-(monthlySpan-1), 0)
		end := start.AddDate(0, 1, 0)
		from := start.Add(-e.offset)
		to := end.Add(-e.offset)

		count, err := e.store.CountEvents(ctx, store.EventFilter{
			Status: model.StatusOccupied,
			From:   &from,
			To:     &to,
		})
		if err != nil {
			return nil, fmt.Errorf("computing monthly hours: %w", err)
		}
		labels[i] = start.Month().String()[:3]
		counts[i] = count
	}

	firstWithData := monthlySpan
	for i, c := range counts {
		if c > 0 {
			firstWithData = i
			break
		}
	}

	entries := make([]MonthlyEntry, 0, monthlySpan)
	for i := 0; i < monthlySpan; i++ {
		if i < firstWithData {
			entries = append(entries, MonthlyEntry{
				Month:     labels[i],
				Hours:     defaultMonthlyHours[i],
				Synthetic: true,
			})
			continue
		}
		entries = append(entries, MonthlyEntry{
			Month: labels[i],
			Hours: round1(float64(counts[i]) * e.hoursPerEvent),
		})
	}
	return entries, nil
}

// HourlyOccupancy returns the occupied fraction of each representative
// 2-hour window (06:00-22:00) over the trailing 28 days. Windows without
// history fall back to the fixed demo curve.
func (e *Engine) HourlyOccupancy(ctx context.Context) ([]HourlyPoint, error) {
	now := e.clock.Now().UTC()
	from := now.Add(-bucketWindow)

	events, err := e.store.QueryEvents(ctx, store.EventFilter{From: &from})
	if err != nil {
		return nil, fmt.Errorf("computing hourly occupancy: %w", err)
	}

	points := make([]HourlyPoint, 0, (hourlyLastHour-hourlyFirstHour)/hourlyStep+1)
	for h := hourlyFirstHour; h <= hourlyLastHour; h += hourlyStep {
		var total, occupied int
		for _, ev := range events {
			lh := e.localTime(ev.ObservedAt).Hour()
			if lh < h || lh >= h+hourlyStep {
				continue
			}
			total++
			if ev.Status == model.StatusOccupied {
				occupied++
			}
		}

		pct := defaultHourlyOccupancy[h]
		if total > 0 {
			pct = 100 * float64(occupied) / float64(total)
		}
		points = append(points, HourlyPoint{Hour: hourLabel(h), OccupiedPct: round1(pct)})
	}
	return points, nil
}

// WeeklyHeatmap returns the day-of-week x hour-of-day occupancy grid over
// 08:00-20:00 for the trailing 28 days. Below the cold-start threshold the
// fixed synthetic schedule is returned instead; at or above it the grid is
// always data-derived.
func (e *Engine) WeeklyHeatmap(ctx context.Context) (*Heatmap, error) {
	total, err := e.store.CountEvents(ctx, store.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("computing heatmap event count: %w", err)
	}
	if total < e.coldStartMin {
		return syntheticHeatmap(), nil
	}

	now := e.clock.Now().UTC()
	from := now.Add(-bucketWindow)
	events, err := e.store.QueryEvents(ctx, store.EventFilter{From: &from})
	if err != nil {
		return nil, fmt.Errorf("computing weekly heatmap: %w", err)
	}

	type bucket struct{ total, occupied int }
	buckets := make(map[time.Weekday]map[int]*bucket, len(weekdays))
	for _, day := range weekdays {
		buckets[day] = make(map[int]*bucket)
		for h := heatmapFirstHour; h < heatmapLastHour; h++ {
			buckets[day][h] = &bucket{}
		}
	}
	for _, ev := range events {
		local := e.localTime(ev.ObservedAt)
		b, ok := buckets[local.Weekday()][local.Hour()]
		if !ok {
			continue
		}
		b.total++
		if ev.Status == model.StatusOccupied {
			b.occupied++
		}
	}

	hm := &Heatmap{Cells: make([]HeatmapCell, 0, len(weekdays)*(heatmapLastHour-heatmapFirstHour))}
	for _, day := range weekdays {
		for h := heatmapFirstHour; h < heatmapLastHour; h++ {
			b := buckets[day][h]
			var pct float64
			if b.total > 0 {
				pct = 100 * float64(b.occupied) / float64(b.total)
			}
			hm.Cells = append(hm.Cells, HeatmapCell{
				Day:         day.String()[:3],
				Hour:        h,
				OccupiedPct: round1(pct),
			})
		}
	}
	return hm, nil
}

func syntheticHeatmap() *Heatmap {
	hm := &Heatmap{Synthetic: true}
	for _, day := range weekdays {
		for h := heatmapFirstHour; h < heatmapLastHour; h++ {
			hm.Cells = append(hm.Cells, HeatmapCell{
				Day:         day.String()[:3],
				Hour:        h,
				OccupiedPct: syntheticHeatmapValue(day, h),
			})
		}
	}
	return hm
}

// slotStat accumulates one (day, 2-hour slot) candidate.
type slotStat struct {
	day      time.Weekday
	hour     int
	total    int
	occupied int
}

func (s slotStat) pct() float64 {
	return 100 * float64(s.occupied) / float64(s.total)
}

func (s slotStat) asTimeSlot() TimeSlot {
	return TimeSlot{
		Day:         s.day.String(),
		Slot:        fmt.Sprintf("%s-%s", hourLabel(s.hour), hourLabel(s.hour+slotWidth)),
		OccupiedPct: round1(s.pct()),
	}
}

// BestTimes recommends up to two low-occupancy business-hour slots on
// distinct days, names the peak slot, and reports the mean daily turnover,
// all over the trailing 28 days. Below the cold-start threshold the whole
// response is the fixed synthetic one.
func (e *Engine) BestTimes(ctx context.Context) (*BestTimesReport, error) {
	total, err := e.store.CountEvents(ctx, store.EventFilter{})
	if err != nil {
		return nil, fmt.Errorf("computing best-times event count: %w", err)
	}
	if total < e.coldStartMin {
		return &BestTimesReport{
			BestTimes:     append([]TimeSlot(nil), defaultBestSlots...),
			PeakTime:      defaultPeakSlot,
			DailyTurnover: DefaultDailyTurnover,
			Synthetic:     true,
		}, nil
	}

	now := e.clock.Now().UTC()
	from := now.Add(-bucketWindow)
	events, err := e.store.QueryEvents(ctx, store.EventFilter{From: &from})
	if err != nil {
		return nil, fmt.Errorf("computing best times: %w", err)
	}

	// Accumulate candidates in fixed day/slot order so ties break
	// deterministically.
	stats := make([]*slotStat, 0, len(weekdays)*(slotLastHour-slotFirstHour)/slotWidth)
	index := make(map[time.Weekday]map[int]*slotStat, len(weekdays))
	for _, day := range weekdays {
		index[day] = make(map[int]*slotStat)
		for h := slotFirstHour; h < slotLastHour; h += slotWidth {
			s := &slotStat{day: day, hour: h}
			index[day][h] = s
			stats = append(stats, s)
		}
	}
	for _, ev := range events {
		local := e.localTime(ev.ObservedAt)
		h := local.Hour()
		if h < slotFirstHour || h >= slotLastHour {
			continue
		}
		s := index[local.Weekday()][h-(h-slotFirstHour)%slotWidth]
		s.total++
		if ev.Status == model.StatusOccupied {
			s.occupied++
		}
	}

	candidates := make([]*slotStat, 0, len(stats))
	for _, s := range stats {
		if s.total > 0 {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].pct() < candidates[j].pct()
	})

	best := make([]TimeSlot, 0, 2)
	usedDays := make(map[string]bool)
	for _, c := range candidates {
		if len(best) == 2 {
			break
		}
		if usedDays[c.day.String()] {
			continue
		}
		usedDays[c.day.String()] = true
		best = append(best, c.asTimeSlot())
	}
	for _, def := range defaultBestSlots {
		if len(best) == 2 {
			break
		}
		if usedDays[def.Day] {
			continue
		}
		usedDays[def.Day] = true
		best = append(best, def)
	}

	peak := defaultPeakSlot
	if len(candidates) > 0 {
		top := candidates[0]
		for _, c := range candidates[1:] {
			if c.pct() > top.pct() {
				top = c
			}
		}
		peak = top.asTimeSlot()
	}

	return &BestTimesReport{
		BestTimes:     best,
		PeakTime:      peak,
		DailyTurnover: round1(e.dailyTurnover(events)),
	}, nil
}

// dailyTurnover is the mean count of transition-into-OCCUPIED events per
// day, over days that saw at least one such transition. The upstream
// statusChanged flag is trusted as-is rather than re-derived from
// consecutive log rows, matching the original deployment's behavior.
func (e *Engine) dailyTurnover(events []model.ParkingEvent) float64 {
	perDay := make(map[string]int)
	for _, ev := range events {
		if !ev.StatusChanged || ev.Status != model.StatusOccupied {
			continue
		}
		day := e.localTime(ev.ObservedAt).Format("2006-01-02")
		perDay[day]++
	}
	if len(perDay) == 0 {
		return DefaultDailyTurnover
	}

	var sum int
	for _, n := range perDay {
		sum += n
	}
	return float64(sum) / float64(len(perDay))
}

// hourLabel formats an hour-of-day the way the dashboard axes expect.
func hourLabel(h int) string {
	h = h % 24
	switch {
	case h == 0:
		return "12AM"
	case h < 12:
		return fmt.Sprintf("%dAM", h)
	case h == 12:
		return "12PM"
	default:
		return fmt.Sprintf("%dPM", h-12)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
