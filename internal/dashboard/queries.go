package dashboard

import (
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/process"
)

// OrderRow holds work order data for the list view.
type OrderRow struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Customer     string     `json:"customer,omitempty"`
	Status       string     `json:"status"`
	IsScheduled  bool       `json:"is_scheduled"`
	PlannedStart *time.Time `json:"planned_start,omitempty"`
	PlannedEnd   *time.Time `json:"planned_end,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	ItemCount    int        `json:"item_count"`
}

// OrderList returns work orders, optionally filtered by status,
// scheduled first then newest first.
func OrderList(db *gorm.DB, status string) ([]OrderRow, error) {
	q := db.Model(&models.WorkOrder{}).Preload("Items")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var orders []models.WorkOrder
	if err := q.Order("is_scheduled DESC, created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}

	rows := make([]OrderRow, len(orders))
	for i, o := range orders {
		rows[i] = OrderRow{
			ID:           o.ID,
			Title:        o.Title,
			Customer:     o.Customer,
			Status:       o.Status,
			IsScheduled:  o.IsScheduled,
			PlannedStart: o.PlannedStart,
			PlannedEnd:   o.PlannedEnd,
			DueDate:      o.DueDate,
			ItemCount:    len(o.Items),
		}
	}
	return rows, nil
}

// ItemRow holds one item's progress for the order detail view.
type ItemRow struct {
	ID          string     `json:"id"`
	Product     string     `json:"product"`
	Quantity    int        `json:"quantity"`
	Status      string     `json:"status"`
	Mode        string     `json:"mode"` // legacy or split
	CurrentStep string     `json:"current_step,omitempty"`
	Worker      string     `json:"worker,omitempty"`
	SubTasks    []SubRow   `json:"sub_tasks,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// SubRow holds one sub-task for the order detail view.
type SubRow struct {
	ID          string `json:"id"`
	Quantity    int    `json:"quantity"`
	CurrentStep string `json:"current_step,omitempty"`
	Status      string `json:"status"`
	WorkerID    string `json:"worker_id,omitempty"`
}

// OrderDetail holds full work order data for the detail view.
type OrderDetail struct {
	OrderRow
	Steps      []string      `json:"steps"`
	TotalCost  float64       `json:"total_cost"`
	TotalPrice float64       `json:"total_price"`
	Profit     float64       `json:"profit"`
	Items      []ItemRow     `json:"items"`
	Materials  []MaterialRow `json:"materials,omitempty"`
}

// MaterialRow holds one purchased material for the detail view.
type MaterialRow struct {
	Name       string     `json:"name"`
	Quantity   float64    `json:"quantity"`
	UnitCost   float64    `json:"unit_cost"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// GetOrderDetail returns the full order view: items with their tracking
// mode and current position in the pipeline, plus materials and money.
func GetOrderDetail(db *gorm.DB, id string) (*OrderDetail, error) {
	var o models.WorkOrder
	err := db.Preload("Items.Assignments").Preload("Items.SubTasks", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Preload("Materials").Where("id = ?", id).First(&o).Error
	if err != nil {
		return nil, err
	}

	detail := &OrderDetail{
		OrderRow: OrderRow{
			ID:           o.ID,
			Title:        o.Title,
			Customer:     o.Customer,
			Status:       o.Status,
			IsScheduled:  o.IsScheduled,
			PlannedStart: o.PlannedStart,
			PlannedEnd:   o.PlannedEnd,
			DueDate:      o.DueDate,
			ItemCount:    len(o.Items),
		},
		Steps:      o.StepList(),
		TotalCost:  o.TotalCost,
		TotalPrice: o.TotalPrice,
		Profit:     o.Profit,
	}

	detail.Items = make([]ItemRow, len(o.Items))
	for i := range o.Items {
		detail.Items[i] = itemRow(&o.Items[i])
	}

	for _, m := range o.Materials {
		detail.Materials = append(detail.Materials, MaterialRow{
			Name:       m.Name,
			Quantity:   m.Quantity,
			UnitCost:   m.UnitCost,
			ReceivedAt: m.ReceivedAt,
		})
	}
	return detail, nil
}

func itemRow(it *models.Item) ItemRow {
	row := ItemRow{
		ID:          it.ID,
		Product:     it.Product,
		Quantity:    it.Quantity,
		Status:      process.ItemStatus(it),
		StartedAt:   it.StartedAt,
		CompletedAt: it.CompletedAt,
	}

	switch mode := it.Mode().(type) {
	case models.SplitMode:
		row.Mode = "split"
		for _, st := range mode.SubTasks {
			row.SubTasks = append(row.SubTasks, SubRow{
				ID:          st.ID,
				Quantity:    st.Quantity,
				CurrentStep: st.CurrentStep,
				Status:      st.Status,
				WorkerID:    st.WorkerID,
			})
		}
	case models.LegacyMode:
		row.Mode = "legacy"
		if cur := process.CurrentAssignment(it); cur != nil {
			row.CurrentStep = cur.Step
			row.Worker = cur.WorkerID
		}
	}
	return row
}

// CalendarSpan is one scheduled order rendered as a day span.
type CalendarSpan struct {
	OrderID string   `json:"order_id"`
	Title   string   `json:"title"`
	Status  string   `json:"status"`
	Start   string   `json:"start"` // YYYY-MM-DD
	End     string   `json:"end"`
	Workers []string `json:"workers,omitempty"`
}

// CalendarSpans returns every scheduled order whose planned window
// overlaps [from, to], with the workers implicated on each.
func CalendarSpans(db *gorm.DB, from, to time.Time) ([]CalendarSpan, error) {
	from = models.DateOf(from)
	to = models.DateOf(to)

	var orders []models.WorkOrder
	err := db.Where("is_scheduled = ?", true).
		Where("planned_start <= ? AND planned_end >= ?", to, from).
		Order("planned_start ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	spans := make([]CalendarSpan, 0, len(orders))
	for _, o := range orders {
		span := CalendarSpan{
			OrderID: o.ID,
			Title:   o.Title,
			Status:  o.Status,
			Start:   dateStr(models.DateOf(*o.PlannedStart)),
			End:     dateStr(models.DateOf(*o.PlannedEnd)),
		}
		workers, err := workerIDsForOrder(db, o.ID)
		if err != nil {
			return nil, err
		}
		span.Workers = workers
		spans = append(spans, span)
	}
	return spans, nil
}

// workerIDsForOrder collects the distinct primary workers across the
// order's items, in both tracking modes.
func workerIDsForOrder(db *gorm.DB, orderID string) ([]string, error) {
	var items []models.Item
	err := db.Preload("Assignments").Preload("SubTasks").
		Where("order_id = ?", orderID).Find(&items).Error
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range items {
		switch mode := items[i].Mode().(type) {
		case models.SplitMode:
			for _, st := range mode.SubTasks {
				add(st.WorkerID)
			}
		case models.LegacyMode:
			for _, a := range mode.Assignments {
				add(a.WorkerID)
			}
		}
	}
	return ids, nil
}
