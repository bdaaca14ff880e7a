// Package reconcile backfills missing work logs and recomputes stored
// work order aggregates. An in-progress assignment implies the worker
// was working every weekday since it started; reconciliation creates
// the logs that were never recorded.
package reconcile

import (
	"fmt"
	"time"

	"github.com/zulandar/benchline/internal/models"
	"gorm.io/gorm"
)

// Result reports what a reconciliation run did.
type Result struct {
	Created int
	Message string
}

// WorkLogs ensures a work log exists for every weekday a worker's
// in-progress assignments and sub-tasks imply work happened. Weekends,
// holidays and paused days are skipped. Existing logs (including
// corrections) are left untouched, so the run is idempotent.
func WorkLogs(db *gorm.DB, workerID string, today time.Time, holidays map[time.Time]bool) (*Result, error) {
	today = models.DateOf(today)

	var worker models.Worker
	if err := db.First(&worker, "id = ?", workerID).Error; err != nil {
		return nil, fmt.Errorf("reconcile: load worker %s: %w", workerID, err)
	}

	created := 0

	var assignments []models.Assignment
	if err := db.Where("worker_id = ? AND status = ? AND started_at IS NOT NULL", workerID, models.StatusInProgress).
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("reconcile: load assignments: %w", err)
	}
	for _, a := range assignments {
		var pauses []models.PausePeriod
		if err := db.Where("item_id = ?", a.ItemID).Find(&pauses).Error; err != nil {
			return nil, fmt.Errorf("reconcile: load pauses: %w", err)
		}
		n, err := backfill(db, backfillOpts{
			itemID:   a.ItemID,
			workerID: workerID,
			step:     a.Step,
			rate:     worker.DailyRate,
			from:     models.DateOf(*a.StartedAt),
			to:       today,
			pauses:   pauses,
			holidays: holidays,
		})
		if err != nil {
			return nil, err
		}
		created += n
	}

	var subTasks []models.SubTask
	if err := db.Preload("Pauses").
		Where("worker_id = ? AND status = ? AND started_at IS NOT NULL", workerID, models.StatusInProgress).
		Find(&subTasks).Error; err != nil {
		return nil, fmt.Errorf("reconcile: load sub-tasks: %w", err)
	}
	for _, st := range subTasks {
		n, err := backfill(db, backfillOpts{
			itemID:    st.ItemID,
			subTaskID: st.ID,
			workerID:  workerID,
			step:      st.CurrentStep,
			rate:      worker.DailyRate,
			from:      models.DateOf(*st.StartedAt),
			to:        today,
			pauses:    st.Pauses,
			holidays:  holidays,
		})
		if err != nil {
			return nil, err
		}
		created += n
	}

	return &Result{
		Created: created,
		Message: fmt.Sprintf("created %d work log(s) for %s", created, workerID),
	}, nil
}

type backfillOpts struct {
	itemID    string
	subTaskID string
	workerID  string
	step      string
	rate      float64
	from, to  time.Time
	pauses    []models.PausePeriod
	holidays  map[time.Time]bool
}

func backfill(db *gorm.DB, opts backfillOpts) (int, error) {
	created := 0
	for d := opts.from; !d.After(opts.to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if opts.holidays[d] {
			continue
		}
		paused := false
		for _, p := range opts.pauses {
			if p.Covers(d) {
				paused = true
				break
			}
		}
		if paused {
			continue
		}

		var count int64
		if err := db.Model(&models.WorkLog{}).
			Where("item_id = ? AND worker_id = ? AND date = ?", opts.itemID, opts.workerID, d).
			Count(&count).Error; err != nil {
			return created, fmt.Errorf("reconcile: check log for %s: %w", d.Format("2006-01-02"), err)
		}
		if count > 0 {
			continue
		}

		var item models.Item
		if err := db.Select("order_id").First(&item, "id = ?", opts.itemID).Error; err != nil {
			return created, fmt.Errorf("reconcile: load item %s: %w", opts.itemID, err)
		}
		log := models.WorkLog{
			OrderID:   item.OrderID,
			ItemID:    opts.itemID,
			WorkerID:  opts.workerID,
			Step:      opts.step,
			Date:      d,
			DailyRate: opts.rate,
			Note:      "backfilled by reconciliation",
		}
		if opts.subTaskID != "" {
			log.SubTaskID = &opts.subTaskID
		}
		if err := db.Create(&log).Error; err != nil {
			return created, fmt.Errorf("reconcile: create log for %s: %w", d.Format("2006-01-02"), err)
		}
		created++
	}
	return created, nil
}

// Order recomputes a work order's stored cost, price and profit from
// its authoritative work logs, materials and item prices.
func Order(db *gorm.DB, orderID string) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := db.Preload("Items").Preload("Materials").First(&order, "id = ?", orderID).Error; err != nil {
		return nil, fmt.Errorf("reconcile: load order %s: %w", orderID, err)
	}

	labor := 0.0
	for _, it := range order.Items {
		var logs []models.WorkLog
		if err := db.Where("item_id = ?", it.ID).Order("id ASC").Find(&logs).Error; err != nil {
			return nil, fmt.Errorf("reconcile: load logs of %s: %w", it.ID, err)
		}
		// Corrections collapse: latest row per (worker, date) wins.
		latest := make(map[string]models.WorkLog)
		for _, l := range logs {
			latest[l.WorkerID+"|"+models.DateOf(l.Date).Format("2006-01-02")] = l
		}
		for _, l := range latest {
			labor += l.DailyRate
		}
	}

	materials := 0.0
	for _, m := range order.Materials {
		materials += m.Quantity * m.UnitCost
	}

	price := 0.0
	for _, it := range order.Items {
		price += float64(it.Quantity) * it.UnitPrice
	}

	order.TotalCost = labor + materials
	order.TotalPrice = price
	order.Profit = price - order.TotalCost
	if err := db.Model(&models.WorkOrder{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"total_cost":  order.TotalCost,
		"total_price": order.TotalPrice,
		"profit":      order.Profit,
	}).Error; err != nil {
		return nil, fmt.Errorf("reconcile: save order %s: %w", orderID, err)
	}
	return &order, nil
}
