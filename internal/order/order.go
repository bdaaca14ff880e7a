// Package order creates and queries work orders. An order is created
// with its pipeline steps and product items in one transaction; each
// item starts in legacy mode with one pending assignment per step.
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/process"
)

// ItemSpec describes one product item to create with an order.
type ItemSpec struct {
	Product   string
	Quantity  int
	UnitPrice float64
}

// CreateOpts holds parameters for creating a work order.
type CreateOpts struct {
	Title    string
	Customer string
	Steps    []string
	DueDate  *time.Time
	Items    []ItemSpec
}

// Create creates a work order with its items and per-step assignments.
func Create(db *gorm.DB, opts CreateOpts) (*models.WorkOrder, error) {
	if opts.Title == "" {
		return nil, fmt.Errorf("order: title is required")
	}
	if len(opts.Steps) == 0 {
		return nil, fmt.Errorf("order: at least one pipeline step is required")
	}
	for _, it := range opts.Items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("order: item %q quantity must be at least 1", it.Product)
		}
	}

	id, err := process.GenerateID("wo")
	if err != nil {
		return nil, fmt.Errorf("order: generate id: %w", err)
	}

	o := models.WorkOrder{
		ID:       id,
		Title:    opts.Title,
		Customer: opts.Customer,
		Status:   models.OrderDraft,
		DueDate:  opts.DueDate,
	}
	if err := o.SetSteps(opts.Steps); err != nil {
		return nil, fmt.Errorf("order: encode steps: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&o).Error; err != nil {
			return fmt.Errorf("order: create %s: %w", o.ID, err)
		}
		for _, spec := range opts.Items {
			itemID, err := process.GenerateID("it")
			if err != nil {
				return fmt.Errorf("order: generate item id: %w", err)
			}
			item := models.Item{
				ID:        itemID,
				OrderID:   o.ID,
				Product:   spec.Product,
				Quantity:  spec.Quantity,
				UnitPrice: spec.UnitPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("order: create item %s: %w", itemID, err)
			}
			for i, step := range opts.Steps {
				a := models.Assignment{
					ItemID:    itemID,
					Step:      step,
					StepOrder: i,
					Status:    models.StatusPending,
				}
				if err := tx.Create(&a).Error; err != nil {
					return fmt.Errorf("order: create assignment %s/%s: %w", itemID, step, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, o.ID)
}

// ListFilters holds optional filters for listing orders.
type ListFilters struct {
	Status   string
	Customer string
}

// List returns orders matching the filters, scheduled first then newest
// first.
func List(db *gorm.DB, filters ListFilters) ([]models.WorkOrder, error) {
	q := db.Model(&models.WorkOrder{}).Preload("Items")
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.Customer != "" {
		q = q.Where("customer = ?", filters.Customer)
	}
	var orders []models.WorkOrder
	if err := q.Order("is_scheduled DESC, created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("order: list: %w", err)
	}
	return orders, nil
}

// Get returns one order with items, assignments, sub-tasks and
// materials preloaded.
func Get(db *gorm.DB, id string) (*models.WorkOrder, error) {
	var o models.WorkOrder
	err := db.Preload("Items.Assignments").
		Preload("Items.SubTasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("position ASC")
		}).
		Preload("Materials").
		Where("id = ?", id).First(&o).Error
	if err != nil {
		return nil, fmt.Errorf("order: load %s: %w", id, err)
	}
	return &o, nil
}

// AddMaterial records a purchased material against an order. ReceivedAt
// is optional; materials without it never appear on item timelines.
func AddMaterial(db *gorm.DB, orderID, name string, quantity, unitCost float64, receivedAt *time.Time) (*models.Material, error) {
	if _, err := Get(db, orderID); err != nil {
		return nil, err
	}
	m := models.Material{
		OrderID:    orderID,
		Name:       name,
		Quantity:   quantity,
		UnitCost:   unitCost,
		ReceivedAt: receivedAt,
	}
	if err := db.Create(&m).Error; err != nil {
		return nil, fmt.Errorf("order: add material: %w", err)
	}
	return &m, nil
}
