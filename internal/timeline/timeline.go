// Package timeline reconstructs a complete day-by-day production
// history for one item from sparse event records: work logs, attendance
// entries and pause periods. Reconstruction is deterministic — the same
// inputs always produce the same output — so retroactive corrections
// can be re-derived safely.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
)

// DayType classifies one calendar day of an item's history.
type DayType string

const (
	DayFuture  DayType = "future"
	DayPaused  DayType = "paused"
	DayHoliday DayType = "holiday"
	DayWeekend DayType = "weekend"
	DayWorking DayType = "working"
	DayNoWork  DayType = "no_work"
)

// Entry kinds attached to a day.
const (
	EntryWorker           = "worker"
	EntryAbsentWorker     = "absent_worker"
	EntryPauseStart       = "pause_start"
	EntryPauseEnd         = "pause_end"
	EntryMaterialReceived = "material_received"
)

// Entry is one event attached to a reconstructed day.
type Entry struct {
	Kind       string
	WorkerID   string
	WorkerName string
	Step       string
	Rate       float64
	Status     string // attendance status text for absent_worker entries
	Detail     string // pause reason or material name
}

// Day is one reconstructed calendar day.
type Day struct {
	Date                time.Time
	Type                DayType
	Entries             []Entry
	DailyLaborCost      float64
	CumulativeLaborCost float64
}

// Timeline is the gap-free reconstructed history of one item.
type Timeline struct {
	ItemID string
	Start  time.Time
	End    time.Time
	Days   []Day
}

// Stats are aggregates derived from a reconstructed timeline in a
// single pass. TotalDays excludes future days.
type Stats struct {
	WorkingDays    int
	PausedDays     int
	TotalDays      int
	TotalLaborCost float64
}

// Reconstruct builds the timeline for an item from its resolved start
// date through min(today, completion). The caller supplies today and
// the holiday set explicitly so reconstruction never reads ambient
// state.
func Reconstruct(db *gorm.DB, itemID string, today time.Time, holidays map[time.Time]bool) (*Timeline, error) {
	var item models.Item
	if err := db.Preload("Order").Preload("Order.Materials").
		Preload("Assignments").Preload("SubTasks").Preload("SubTasks.Pauses").Preload("Pauses").
		First(&item, "id = ?", itemID).Error; err != nil {
		return nil, fmt.Errorf("timeline: load item %s: %w", itemID, err)
	}
	if item.Order == nil {
		return nil, fmt.Errorf("timeline: item %s has no parent order", itemID)
	}

	logs, err := authoritativeLogs(db, itemID)
	if err != nil {
		return nil, err
	}

	today = models.DateOf(today)
	start := resolveStart(&item, logs)
	end := today
	if item.CompletedAt != nil && models.DateOf(*item.CompletedAt).Before(end) {
		end = models.DateOf(*item.CompletedAt)
	}

	tl := &Timeline{ItemID: itemID, Start: start, End: end}
	if end.Before(start) {
		return tl, nil
	}

	pauses := collectPauses(&item)
	workers := assignedWorkers(&item)
	names, err := workerNames(db, logs, workers)
	if err != nil {
		return nil, err
	}

	logsByDate := make(map[time.Time][]models.WorkLog)
	for _, l := range logs {
		d := models.DateOf(l.Date)
		logsByDate[d] = append(logsByDate[d], l)
	}

	attendance, err := attendanceByKey(db, workers, start, end)
	if err != nil {
		return nil, err
	}

	cumulative := 0.0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := Day{Date: d}
		dayLogs := logsByDate[d]
		day.Type = classify(d, today, dayLogs, pauses, holidays)

		// Worker entries, one per authoritative log.
		for _, l := range dayLogs {
			day.Entries = append(day.Entries, Entry{
				Kind:       EntryWorker,
				WorkerID:   l.WorkerID,
				WorkerName: names[l.WorkerID],
				Step:       l.Step,
				Rate:       l.DailyRate,
			})
			day.DailyLaborCost += l.DailyRate
		}

		// Absent-worker entries only on plausibly-workable days.
		if day.Type == DayWorking || day.Type == DayNoWork {
			logged := make(map[string]bool, len(dayLogs))
			for _, l := range dayLogs {
				logged[l.WorkerID] = true
			}
			for _, w := range workers {
				if logged[w] {
					continue
				}
				status := "unknown"
				if att, ok := attendance[attKey(w, d)]; ok {
					status = att.Status
				}
				day.Entries = append(day.Entries, Entry{
					Kind:       EntryAbsentWorker,
					WorkerID:   w,
					WorkerName: names[w],
					Status:     status,
				})
			}
		}

		// Pause boundary markers on their exact dates.
		for _, p := range pauses {
			if models.SameDay(p.StartedAt, d) {
				day.Entries = append(day.Entries, Entry{Kind: EntryPauseStart, Detail: p.Reason})
			}
			if p.EndedAt != nil && models.SameDay(*p.EndedAt, d) {
				day.Entries = append(day.Entries, Entry{Kind: EntryPauseEnd, Detail: p.Reason})
			}
		}

		// Material markers, best-effort: dateless materials never appear.
		for _, m := range item.Order.Materials {
			if m.ReceivedAt != nil && models.SameDay(*m.ReceivedAt, d) {
				day.Entries = append(day.Entries, Entry{Kind: EntryMaterialReceived, Detail: m.Name})
			}
		}

		cumulative += day.DailyLaborCost
		day.CumulativeLaborCost = cumulative
		tl.Days = append(tl.Days, day)
	}
	return tl, nil
}

// ComputeStats derives aggregate stats in a single pass over the days.
func ComputeStats(tl *Timeline) Stats {
	var s Stats
	for _, d := range tl.Days {
		switch d.Type {
		case DayFuture:
			continue
		case DayWorking:
			s.WorkingDays++
		case DayPaused:
			s.PausedDays++
		}
		s.TotalDays++
		s.TotalLaborCost += d.DailyLaborCost
	}
	return s
}

// classify assigns exactly one DayType by fixed priority:
// future > paused > holiday > weekend > working > no_work.
func classify(d, today time.Time, dayLogs []models.WorkLog, pauses []models.PausePeriod, holidays map[time.Time]bool) DayType {
	if d.After(today) {
		return DayFuture
	}
	for _, p := range pauses {
		if p.Covers(d) {
			return DayPaused
		}
	}
	if holidays[d] {
		return DayHoliday
	}
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return DayWeekend
	}
	if len(dayLogs) > 0 {
		return DayWorking
	}
	return DayNoWork
}

// resolveStart picks the timeline start: the item's own start, else the
// order's creation date, else the earliest log date — clamped to never
// precede the order's creation date.
func resolveStart(item *models.Item, logs []models.WorkLog) time.Time {
	created := models.DateOf(item.Order.CreatedAt)

	var start time.Time
	switch {
	case item.StartedAt != nil:
		start = models.DateOf(*item.StartedAt)
	case !item.Order.CreatedAt.IsZero():
		start = created
	default:
		for i, l := range logs {
			d := models.DateOf(l.Date)
			if i == 0 || d.Before(start) {
				start = d
			}
		}
	}
	if start.Before(created) {
		return created
	}
	return start
}

// authoritativeLogs returns the item's work logs with corrections
// collapsed: the latest row per (worker, date) wins, in append order.
func authoritativeLogs(db *gorm.DB, itemID string) ([]models.WorkLog, error) {
	var rows []models.WorkLog
	if err := db.Where("item_id = ?", itemID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("timeline: load work logs of %s: %w", itemID, err)
	}
	latest := make(map[string]models.WorkLog)
	for _, r := range rows {
		latest[attKey(r.WorkerID, models.DateOf(r.Date))] = r
	}
	out := make([]models.WorkLog, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// collectPauses merges item-level pauses with every sub-task's pauses.
func collectPauses(item *models.Item) []models.PausePeriod {
	pauses := append([]models.PausePeriod(nil), item.Pauses...)
	for _, st := range item.SubTasks {
		pauses = append(pauses, st.Pauses...)
	}
	sort.Slice(pauses, func(i, j int) bool { return pauses[i].StartedAt.Before(pauses[j].StartedAt) })
	return pauses
}

// assignedWorkers lists the workers bound to the item (primaries and
// helpers, both modes), de-duplicated in first-seen order.
func assignedWorkers(item *models.Item) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	switch m := item.Mode().(type) {
	case models.SplitMode:
		for _, st := range m.SubTasks {
			add(st.WorkerID)
			for _, h := range st.Helpers() {
				add(h)
			}
		}
	case models.LegacyMode:
		for _, a := range m.Assignments {
			add(a.WorkerID)
			for _, h := range a.Helpers() {
				add(h)
			}
		}
	}
	return out
}

func workerNames(db *gorm.DB, logs []models.WorkLog, workers []string) (map[string]string, error) {
	ids := make(map[string]bool)
	for _, w := range workers {
		ids[w] = true
	}
	for _, l := range logs {
		ids[l.WorkerID] = true
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	var rows []models.Worker
	if err := db.Where("id IN ?", list).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("timeline: load workers: %w", err)
	}
	names := make(map[string]string, len(ids))
	for id := range ids {
		names[id] = id // fall back to the ID when the roster has no row
	}
	for _, w := range rows {
		names[w.ID] = w.Name
	}
	return names, nil
}

// attendanceByKey loads the authoritative attendance rows for the
// workers across [start, end], keyed by worker and day. Later rows for
// the same key override earlier ones.
func attendanceByKey(db *gorm.DB, workers []string, start, end time.Time) (map[string]models.Attendance, error) {
	if len(workers) == 0 {
		return map[string]models.Attendance{}, nil
	}
	var rows []models.Attendance
	if err := db.Where("worker_id IN ? AND date >= ? AND date <= ?", workers, start, end).
		Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("timeline: load attendance: %w", err)
	}
	out := make(map[string]models.Attendance, len(rows))
	for _, r := range rows {
		out[attKey(r.WorkerID, models.DateOf(r.Date))] = r
	}
	return out, nil
}

func attKey(workerID string, day time.Time) string {
	return workerID + "|" + day.Format("2006-01-02")
}
