package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkOrder_StepsRoundTrip(t *testing.T) {
	var o WorkOrder
	steps := []string{"cutting", "edging", "assembly"}
	if err := o.SetSteps(steps); err != nil {
		t.Fatalf("SetSteps: %v", err)
	}
	got := o.StepList()
	if len(got) != 3 {
		t.Fatalf("len(StepList()) = %d, want 3", len(got))
	}
	for i, s := range steps {
		if got[i] != s {
			t.Errorf("StepList()[%d] = %q, want %q", i, got[i], s)
		}
	}
}

func TestWorkOrder_StepListEmpty(t *testing.T) {
	var o WorkOrder
	if got := o.StepList(); got != nil {
		t.Errorf("StepList() on empty = %v, want nil", got)
	}
}

func TestItem_Mode(t *testing.T) {
	legacy := Item{Assignments: []Assignment{{Step: "cutting"}}}
	switch m := legacy.Mode().(type) {
	case LegacyMode:
		if len(m.Assignments) != 1 {
			t.Errorf("LegacyMode assignments = %d, want 1", len(m.Assignments))
		}
	default:
		t.Errorf("Mode() = %T, want LegacyMode", m)
	}

	split := Item{
		Assignments: []Assignment{{Step: "cutting"}},
		SubTasks:    []SubTask{{Quantity: 4}, {Quantity: 6}},
	}
	switch m := split.Mode().(type) {
	case SplitMode:
		if len(m.SubTasks) != 2 {
			t.Errorf("SplitMode sub-tasks = %d, want 2", len(m.SubTasks))
		}
	default:
		t.Errorf("Mode() = %T, want SplitMode", m)
	}
}

func TestPausePeriod_Covers(t *testing.T) {
	end := date(2024, 6, 5)
	closed := PausePeriod{StartedAt: date(2024, 6, 4), EndedAt: &end}
	open := PausePeriod{StartedAt: date(2024, 6, 4)}

	tests := []struct {
		name  string
		pause PausePeriod
		day   time.Time
		want  bool
	}{
		{"before start", closed, date(2024, 6, 3), false},
		{"start boundary", closed, date(2024, 6, 4), true},
		{"end boundary", closed, date(2024, 6, 5), true},
		{"after end", closed, date(2024, 6, 6), false},
		{"open covers later days", open, date(2024, 6, 20), true},
		{"open before start", open, date(2024, 6, 3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pause.Covers(tt.day); got != tt.want {
				t.Errorf("Covers(%s) = %v, want %v", tt.day.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 6, 3, 17, 45, 12, 0, time.UTC)
	if got := DateOf(ts); !got.Equal(date(2024, 6, 3)) {
		t.Errorf("DateOf = %v, want 2024-06-03", got)
	}
	if !SameDay(ts, date(2024, 6, 3)) {
		t.Error("SameDay should match timestamps on the same day")
	}
	if SameDay(ts, date(2024, 6, 4)) {
		t.Error("SameDay should not match different days")
	}
}

func TestSubTask_HelpersRoundTrip(t *testing.T) {
	var s SubTask
	if got := s.Helpers(); got != nil {
		t.Errorf("Helpers() on empty = %v, want nil", got)
	}
	if err := s.SetHelpers([]string{"w-2", "w-3"}); err != nil {
		t.Fatalf("SetHelpers: %v", err)
	}
	got := s.Helpers()
	if len(got) != 2 || got[0] != "w-2" || got[1] != "w-3" {
		t.Errorf("Helpers() = %v, want [w-2 w-3]", got)
	}
}

func TestAttendance_Unavailable(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{AttendancePresent, false},
		{AttendanceField, false},
		{AttendanceWeekend, false},
		{AttendanceAbsent, true},
		{AttendanceSick, true},
		{AttendanceVacation, true},
	}
	for _, tt := range tests {
		a := Attendance{Status: tt.status}
		if got := a.Unavailable(); got != tt.want {
			t.Errorf("Unavailable(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
