package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/benchline/internal/db"
	"github.com/zulandar/benchline/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.AllModels()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func newTestRouter(t *testing.T, gdb *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, gdb, nil)
	return router
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(t time.Time) *time.Time { return &t }

// seedScheduledOrder creates an order scheduled 2024-06-03..2024-06-07
// with one legacy item worked by w-1.
func seedScheduledOrder(t *testing.T, gdb *gorm.DB) models.WorkOrder {
	t.Helper()
	order := models.WorkOrder{
		ID:           "wo-00001",
		Title:        "Oak table run",
		Customer:     "Hilltop Cafe",
		Status:       models.OrderScheduled,
		IsScheduled:  true,
		PlannedStart: ptr(day("2024-06-03")),
		PlannedEnd:   ptr(day("2024-06-07")),
		CreatedAt:    day("2024-06-01"),
	}
	if err := order.SetSteps([]string{"cutting", "assembly"}); err != nil {
		t.Fatalf("set steps: %v", err)
	}
	if err := gdb.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}

	worker := models.Worker{ID: "w-1", Name: "Mara", DailyRate: 50, Active: true}
	if err := gdb.Create(&worker).Error; err != nil {
		t.Fatalf("create worker: %v", err)
	}

	item := models.Item{ID: "it-00001", OrderID: order.ID, Product: "table", Quantity: 4}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	assigns := []models.Assignment{
		{ItemID: item.ID, Step: "cutting", StepOrder: 0, WorkerID: "w-1", Status: models.StatusInProgress},
		{ItemID: item.ID, Step: "assembly", StepOrder: 1, Status: models.StatusPending},
	}
	if err := gdb.Create(&assigns).Error; err != nil {
		t.Fatalf("create assignments: %v", err)
	}
	return order
}

func doGET(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, openTestDB(t))

	w := doGET(t, router, "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("body = %s, want status ok", w.Body.String())
	}
}

func TestOrderList(t *testing.T) {
	gdb := openTestDB(t)
	seedScheduledOrder(t, gdb)
	router := newTestRouter(t, gdb)

	w := doGET(t, router, "/api/orders")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Orders []OrderRow `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Orders) != 1 {
		t.Fatalf("got %d orders, want 1", len(resp.Orders))
	}
	got := resp.Orders[0]
	if got.ID != "wo-00001" || !got.IsScheduled || got.ItemCount != 1 {
		t.Errorf("order = %+v, want wo-00001 scheduled with 1 item", got)
	}
}

func TestOrderList_StatusFilter(t *testing.T) {
	gdb := openTestDB(t)
	seedScheduledOrder(t, gdb)
	router := newTestRouter(t, gdb)

	w := doGET(t, router, "/api/orders?status=draft")
	var resp struct {
		Orders []OrderRow `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Orders) != 0 {
		t.Errorf("got %d draft orders, want 0", len(resp.Orders))
	}
}

func TestOrderDetail(t *testing.T) {
	gdb := openTestDB(t)
	seedScheduledOrder(t, gdb)
	router := newTestRouter(t, gdb)

	w := doGET(t, router, "/api/orders/wo-00001")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var detail OrderDetail
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(detail.Steps) != 2 || detail.Steps[0] != "cutting" {
		t.Errorf("steps = %v, want [cutting assembly]", detail.Steps)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("got %d items, want 1", len(detail.Items))
	}
	item := detail.Items[0]
	if item.Mode != "legacy" || item.CurrentStep != "cutting" || item.Worker != "w-1" {
		t.Errorf("item = %+v, want legacy mode at cutting with w-1", item)
	}
}

func TestOrderDetail_NotFound(t *testing.T) {
	router := newTestRouter(t, openTestDB(t))

	w := doGET(t, router, "/api/orders/wo-nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestOrderConflicts(t *testing.T) {
	gdb := openTestDB(t)
	seedScheduledOrder(t, gdb)

	// A second scheduled order sharing w-1 on an overlapping window.
	other := models.WorkOrder{
		ID:           "wo-00002",
		Title:        "Chair batch",
		Status:       models.OrderScheduled,
		IsScheduled:  true,
		PlannedStart: ptr(day("2024-06-05")),
		PlannedEnd:   ptr(day("2024-06-10")),
	}
	if err := gdb.Create(&other).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	item := models.Item{ID: "it-00002", OrderID: other.ID, Product: "chair", Quantity: 8}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	assign := models.Assignment{ItemID: item.ID, Step: "cutting", StepOrder: 0, WorkerID: "w-1", Status: models.StatusPending}
	if err := gdb.Create(&assign).Error; err != nil {
		t.Fatalf("create assignment: %v", err)
	}

	router := newTestRouter(t, gdb)
	w := doGET(t, router, "/api/orders/wo-00002/conflicts")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var report struct {
		HasConflicts bool `json:"HasConflicts"`
		Conflicts    []struct {
			WorkerID string
			OrderID  string
		}
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.HasConflicts || len(report.Conflicts) != 1 {
		t.Fatalf("report = %+v, want one conflict", report)
	}
	if report.Conflicts[0].WorkerID != "w-1" || report.Conflicts[0].OrderID != "wo-00001" {
		t.Errorf("conflict = %+v, want w-1 against wo-00001", report.Conflicts[0])
	}
}

func TestOrderConflicts_Unscheduled(t *testing.T) {
	gdb := openTestDB(t)
	order := models.WorkOrder{ID: "wo-00003", Title: "Draft run", Status: models.OrderDraft}
	if err := gdb.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}

	router := newTestRouter(t, gdb)
	w := doGET(t, router, "/api/orders/wo-00003/conflicts")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCalendar(t *testing.T) {
	gdb := openTestDB(t)
	seedScheduledOrder(t, gdb)
	router := newTestRouter(t, gdb)

	w := doGET(t, router, "/api/calendar?from=2024-06-01&to=2024-06-30")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Orders []CalendarSpan `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Orders) != 1 {
		t.Fatalf("got %d spans, want 1", len(resp.Orders))
	}
	span := resp.Orders[0]
	if span.Start != "2024-06-03" || span.End != "2024-06-07" {
		t.Errorf("span = %s..%s, want 2024-06-03..2024-06-07", span.Start, span.End)
	}
	if len(span.Workers) != 1 || span.Workers[0] != "w-1" {
		t.Errorf("workers = %v, want [w-1]", span.Workers)
	}
}

func TestCalendar_WindowExcludes(t *testing.T) {
	gdb := openTestDB(t)
	seedScheduledOrder(t, gdb)
	router := newTestRouter(t, gdb)

	w := doGET(t, router, "/api/calendar?from=2024-07-01&to=2024-07-31")
	var resp struct {
		Orders []CalendarSpan `json:"orders"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Orders) != 0 {
		t.Errorf("got %d spans in July, want 0", len(resp.Orders))
	}
}

func TestCalendar_BadDates(t *testing.T) {
	router := newTestRouter(t, openTestDB(t))

	for _, path := range []string{
		"/api/calendar?from=junk",
		"/api/calendar?to=junk",
		"/api/calendar?from=2024-06-10&to=2024-06-01",
	} {
		w := doGET(t, router, path)
		if w.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", path, w.Code)
		}
	}
}

func TestItemTimeline(t *testing.T) {
	gdb := openTestDB(t)
	order := seedScheduledOrder(t, gdb)

	started := day("2024-06-03")
	if err := gdb.Model(&models.Item{}).Where("id = ?", "it-00001").
		Update("started_at", started).Error; err != nil {
		t.Fatalf("set started_at: %v", err)
	}
	log := models.WorkLog{
		OrderID:   order.ID,
		ItemID:    "it-00001",
		WorkerID:  "w-1",
		Step:      "cutting",
		Date:      day("2024-06-03"),
		DailyRate: 50,
	}
	if err := gdb.Create(&log).Error; err != nil {
		t.Fatalf("create work log: %v", err)
	}

	router := newTestRouter(t, gdb)
	w := doGET(t, router, "/api/items/it-00001/timeline?today=2024-06-04")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Timeline struct {
			Days []struct {
				Type string
			}
		}
		Stats struct {
			TotalDays int
		}
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Timeline.Days) != 2 {
		t.Fatalf("got %d days, want 2 (06-03..06-04)", len(resp.Timeline.Days))
	}
	if resp.Timeline.Days[0].Type != "working" {
		t.Errorf("day 1 type = %s, want working", resp.Timeline.Days[0].Type)
	}
}

func TestItemTimeline_BadToday(t *testing.T) {
	router := newTestRouter(t, openTestDB(t))

	w := doGET(t, router, "/api/items/it-00001/timeline?today=junk")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestItemTimeline_NotFound(t *testing.T) {
	router := newTestRouter(t, openTestDB(t))

	w := doGET(t, router, "/api/items/it-nope/timeline?today=2024-06-04")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
