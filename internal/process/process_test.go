package process

import (
	"errors"
	"testing"
	"time"

	"github.com/zulandar/benchline/internal/db"
	"github.com/zulandar/benchline/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
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

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedItem creates an order with one legacy item across the given steps.
func seedItem(t *testing.T, gdb *gorm.DB, steps []string) *models.Item {
	t.Helper()
	order := models.WorkOrder{ID: "wo-00001", Title: "Oak shelving", Status: models.OrderAssigned}
	if err := order.SetSteps(steps); err != nil {
		t.Fatalf("set steps: %v", err)
	}
	if err := gdb.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	item := models.Item{ID: "it-00001", OrderID: order.ID, Product: "shelf", Quantity: 10}
	if err := gdb.Create(&item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	for i, s := range steps {
		a := models.Assignment{ItemID: item.ID, Step: s, StepOrder: i, Status: models.StatusPending}
		if err := gdb.Create(&a).Error; err != nil {
			t.Fatalf("create assignment: %v", err)
		}
	}
	return &item
}

func reloadItem(t *testing.T, gdb *gorm.DB, id string) *models.Item {
	t.Helper()
	var it models.Item
	if err := gdb.Preload("Assignments").Preload("SubTasks").Preload("Pauses").
		First(&it, "id = ?", id).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	return &it
}

func TestIsValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{models.StatusPending, models.StatusInProgress, true},
		{models.StatusPending, models.StatusDone, true},
		{models.StatusPending, models.StatusDeferred, true},
		{models.StatusInProgress, models.StatusDone, true},
		{models.StatusInProgress, models.StatusDeferred, true},
		{models.StatusDeferred, models.StatusPending, true},
		{models.StatusDeferred, models.StatusInProgress, true},
		{models.StatusDone, models.StatusInProgress, false},
		{models.StatusDone, models.StatusPending, false},
		{models.StatusDeferred, models.StatusDone, false},
	}
	for _, tt := range tests {
		if got := isValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("isValidTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSetSubTaskStatus_StampsTimes(t *testing.T) {
	gdb := openTestDB(t)
	item := seedItem(t, gdb, []string{"cutting"})
	st := models.SubTask{ID: "st-00001", ItemID: item.ID, Quantity: 10, CurrentStep: "cutting"}
	st.Status = models.StatusPending
	if err := gdb.Create(&st).Error; err != nil {
		t.Fatalf("create sub-task: %v", err)
	}

	now := date(2024, 6, 3)
	got, err := SetSubTaskStatus(gdb, st.ID, models.StatusInProgress, now)
	if err != nil {
		t.Fatalf("SetSubTaskStatus: %v", err)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(now) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, now)
	}

	later := date(2024, 6, 5)
	got, err = SetSubTaskStatus(gdb, st.ID, models.StatusDone, later)
	if err != nil {
		t.Fatalf("SetSubTaskStatus done: %v", err)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(later) {
		t.Errorf("CompletedAt = %v, want %v", got.CompletedAt, later)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(now) {
		t.Errorf("StartedAt changed to %v, want %v", got.StartedAt, now)
	}

	// Done is terminal.
	if _, err := SetSubTaskStatus(gdb, st.ID, models.StatusInProgress, later); !errors.Is(err, ErrAlreadyDone) {
		t.Errorf("transition out of done = %v, want ErrAlreadyDone", err)
	}
}

func TestPauseResumeSubTask(t *testing.T) {
	gdb := openTestDB(t)
	item := seedItem(t, gdb, []string{"cutting"})
	st := models.SubTask{ID: "st-00001", ItemID: item.ID, Quantity: 10, Status: models.StatusInProgress}
	if err := gdb.Create(&st).Error; err != nil {
		t.Fatalf("create sub-task: %v", err)
	}

	start := date(2024, 6, 4)
	p, err := PauseSubTask(gdb, st.ID, "missing hardware", start)
	if err != nil {
		t.Fatalf("PauseSubTask: %v", err)
	}
	if !p.Open() {
		t.Error("new pause should be open")
	}

	// At most one open pause.
	if _, err := PauseSubTask(gdb, st.ID, "again", start); !errors.Is(err, ErrAlreadyPaused) {
		t.Errorf("second pause = %v, want ErrAlreadyPaused", err)
	}

	// No work logged while paused.
	_, err = LogWork(gdb, LogOpts{ItemID: item.ID, SubTaskID: st.ID, WorkerID: "w-1", Step: "cutting", Date: start, DailyRate: 50})
	if !errors.Is(err, ErrPaused) {
		t.Errorf("LogWork while paused = %v, want ErrPaused", err)
	}

	end := date(2024, 6, 5)
	resumed, err := ResumeSubTask(gdb, st.ID, end)
	if err != nil {
		t.Fatalf("ResumeSubTask: %v", err)
	}
	if resumed.EndedAt == nil || !resumed.EndedAt.Equal(end) {
		t.Errorf("EndedAt = %v, want %v", resumed.EndedAt, end)
	}

	if _, err := ResumeSubTask(gdb, st.ID, end); !errors.Is(err, ErrNotPaused) {
		t.Errorf("resume without pause = %v, want ErrNotPaused", err)
	}

	// Work may be logged again after resume.
	if _, err := LogWork(gdb, LogOpts{ItemID: item.ID, SubTaskID: st.ID, WorkerID: "w-1", Step: "cutting", Date: end, DailyRate: 50}); err != nil {
		t.Errorf("LogWork after resume: %v", err)
	}
}

func TestPauseSubTask_DoneRejected(t *testing.T) {
	gdb := openTestDB(t)
	item := seedItem(t, gdb, []string{"cutting"})
	st := models.SubTask{ID: "st-00001", ItemID: item.ID, Quantity: 10, Status: models.StatusDone}
	if err := gdb.Create(&st).Error; err != nil {
		t.Fatalf("create sub-task: %v", err)
	}
	if _, err := PauseSubTask(gdb, st.ID, "", date(2024, 6, 4)); !errors.Is(err, ErrAlreadyDone) {
		t.Errorf("pause done sub-task = %v, want ErrAlreadyDone", err)
	}
}

func TestCurrentAssignment_Scan(t *testing.T) {
	gdb := openTestDB(t)
	item := seedItem(t, gdb, []string{"cutting", "edging", "assembly"})

	it := reloadItem(t, gdb, item.ID)
	cur := CurrentAssignment(it)
	if cur == nil || cur.Step != "cutting" {
		t.Fatalf("CurrentAssignment = %+v, want cutting", cur)
	}

	if _, err := SetAssignmentStatus(gdb, item.ID, "cutting", models.StatusDone, date(2024, 6, 3)); err != nil {
		t.Fatalf("complete cutting: %v", err)
	}
	it = reloadItem(t, gdb, item.ID)
	cur = CurrentAssignment(it)
	if cur == nil || cur.Step != "edging" {
		t.Fatalf("CurrentAssignment after cutting done = %+v, want edging", cur)
	}
	if got := ItemStatus(it); got != models.StatusPending {
		t.Errorf("ItemStatus = %q, want pending (edging untouched)", got)
	}

	// Finish the rest; item becomes done with CompletedAt stamped.
	if _, err := SetAssignmentStatus(gdb, item.ID, "edging", models.StatusDone, date(2024, 6, 4)); err != nil {
		t.Fatalf("complete edging: %v", err)
	}
	if _, err := SetAssignmentStatus(gdb, item.ID, "assembly", models.StatusDone, date(2024, 6, 5)); err != nil {
		t.Fatalf("complete assembly: %v", err)
	}
	it = reloadItem(t, gdb, item.ID)
	if CurrentAssignment(it) != nil {
		t.Error("CurrentAssignment should be nil when all stages done")
	}
	if got := ItemStatus(it); got != models.StatusDone {
		t.Errorf("ItemStatus = %q, want done", got)
	}
	if it.CompletedAt == nil {
		t.Error("item CompletedAt should be stamped when final stage completes")
	}
}

func TestAssignStepWorker_AdvisoryAvailability(t *testing.T) {
	gdb := openTestDB(t)
	item := seedItem(t, gdb, []string{"cutting"})
	today := date(2024, 6, 3)

	if _, err := SetAttendance(gdb, "w-1", today, models.AttendanceSick, ""); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}

	a, avail, err := AssignStepWorker(gdb, item.ID, "cutting", "w-1", nil, today)
	if err != nil {
		t.Fatalf("AssignStepWorker: %v", err)
	}
	if avail.Allowed {
		t.Error("expected availability warning for sick worker")
	}
	if avail.Reason == "" {
		t.Error("expected a reason for the warning")
	}
	// Warning is advisory: the assignment still happened.
	if a.WorkerID != "w-1" || a.Status != models.StatusInProgress {
		t.Errorf("assignment = %s/%s, want w-1/in_progress", a.WorkerID, a.Status)
	}

	it := reloadItem(t, gdb, item.ID)
	if it.StartedAt == nil {
		t.Error("item StartedAt should be set when first stage starts")
	}
}

func TestCanWorkerStart(t *testing.T) {
	gdb := openTestDB(t)
	today := date(2024, 6, 3)

	// No attendance record: allowed.
	avail, err := CanWorkerStart(gdb, "w-9", today)
	if err != nil {
		t.Fatalf("CanWorkerStart: %v", err)
	}
	if !avail.Allowed {
		t.Error("worker with no record should be allowed")
	}

	// Correction flow: absent, then corrected to present — last row wins.
	if _, err := SetAttendance(gdb, "w-9", today, models.AttendanceAbsent, ""); err != nil {
		t.Fatalf("SetAttendance: %v", err)
	}
	avail, _ = CanWorkerStart(gdb, "w-9", today)
	if avail.Allowed {
		t.Error("absent worker should get a warning")
	}
	if _, err := SetAttendance(gdb, "w-9", today, models.AttendancePresent, "corrected"); err != nil {
		t.Fatalf("SetAttendance correction: %v", err)
	}
	avail, _ = CanWorkerStart(gdb, "w-9", today)
	if !avail.Allowed {
		t.Error("corrected-to-present worker should be allowed")
	}
}

func TestSetAttendance_UnknownStatus(t *testing.T) {
	gdb := openTestDB(t)
	if _, err := SetAttendance(gdb, "w-1", date(2024, 6, 3), "awol", ""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestGetMonthlyAttendance_CollapsesCorrections(t *testing.T) {
	gdb := openTestDB(t)
	d1, d2 := date(2024, 6, 3), date(2024, 6, 4)
	if _, err := SetAttendance(gdb, "w-1", d1, models.AttendanceAbsent, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := SetAttendance(gdb, "w-1", d1, models.AttendanceSick, "corrected"); err != nil {
		t.Fatal(err)
	}
	if _, err := SetAttendance(gdb, "w-1", d2, models.AttendancePresent, ""); err != nil {
		t.Fatal(err)
	}

	rows, err := GetMonthlyAttendance(gdb, "w-1", 2024, time.June)
	if err != nil {
		t.Fatalf("GetMonthlyAttendance: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2 (corrections collapsed)", len(rows))
	}
	if rows[0].Status != models.AttendanceSick {
		t.Errorf("rows[0].Status = %q, want sick (latest correction)", rows[0].Status)
	}
	if rows[1].Status != models.AttendancePresent {
		t.Errorf("rows[1].Status = %q, want present", rows[1].Status)
	}
}

func TestGenerateID(t *testing.T) {
	id, err := GenerateID("wo")
	if err != nil {
		t.Fatalf("GenerateID: %v", err)
	}
	if len(id) != len("wo-")+5 {
		t.Errorf("len(%q) = %d, want %d", id, len(id), len("wo-")+5)
	}
}
