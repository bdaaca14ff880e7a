package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zulandar/benchline/internal/models"
	"github.com/zulandar/benchline/internal/schedule"
	"github.com/zulandar/benchline/internal/timeline"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, db *gorm.DB, holidays map[time.Time]bool) {
	router.GET("/healthz", handleHealthz(db))

	api := router.Group("/api")
	api.GET("/calendar", handleCalendar(db))
	api.GET("/orders", handleOrderList(db))
	api.GET("/orders/:id", handleOrderDetail(db))
	api.GET("/orders/:id/conflicts", handleOrderConflicts(db))
	api.GET("/items/:id/timeline", handleItemTimeline(db, holidays))
}

func handleHealthz(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// handleCalendar returns scheduled orders as day spans. Optional from/to
// (YYYY-MM-DD) bound the window; the default is the current month.
func handleCalendar(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := calendarWindow(c.Query("from"), c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		spans, err := CalendarSpans(db, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"from": dateStr(from), "to": dateStr(to), "orders": spans})
	}
}

func handleOrderList(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := OrderList(db, c.Query("status"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": rows})
	}
}

func handleOrderDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		detail, err := GetOrderDetail(db, c.Param("id"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

// handleOrderConflicts re-runs conflict detection for the order's
// planned window, the same check the scheduler applies before writing.
func handleOrderConflicts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var order models.WorkOrder
		if err := db.Where("id = ?", c.Param("id")).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !order.IsScheduled || order.PlannedStart == nil || order.PlannedEnd == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order is not scheduled"})
			return
		}

		workers, err := schedule.ImplicatedWorkers(db, order.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		report, err := schedule.CheckWorkerConflicts(db, workers, *order.PlannedStart, *order.PlannedEnd, order.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// handleItemTimeline reconstructs an item's day-by-day history. The
// today query parameter (YYYY-MM-DD) pins the reconstruction horizon;
// it defaults to the current UTC day.
func handleItemTimeline(db *gorm.DB, holidays map[time.Time]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		today := models.DateOf(time.Now())
		if raw := c.Query("today"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "today must be YYYY-MM-DD"})
				return
			}
			today = parsed
		}

		tl, err := timeline.Reconstruct(db, c.Param("id"), today, holidays)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"timeline": tl, "stats": timeline.ComputeStats(tl)})
	}
}

// calendarWindow resolves the from/to query parameters, defaulting to
// the current calendar month.
func calendarWindow(fromRaw, toRaw string) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if fromRaw != "" {
		parsed, err := time.Parse("2006-01-02", fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
		from = parsed
	}
	if toRaw != "" {
		parsed, err := time.Parse("2006-01-02", toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
		to = parsed
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.New("to must not precede from")
	}
	return from, to, nil
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}
