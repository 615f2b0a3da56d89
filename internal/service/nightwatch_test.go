package service

import (
	"context"
	"slices"
	"testing"

	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/usecase"
)

func TestNightwatchService_StartStopSequence(t *testing.T) {
	f := newFixture(weekdayAt(12), false)

	steps := []struct {
		op   string
		want domain.RunStatus
	}{
		{"start", domain.StatusStarted},
		{"start", domain.StatusAlreadyStarted},
		{"stop", domain.StatusStopped},
		{"stop", domain.StatusAlreadyStopped},
		{"start", domain.StatusStarted},
	}
	for i, step := range steps {
		var got domain.RunStatus
		if step.op == "start" {
			var err error
			if got, err = f.svc.Start(); err != nil {
				t.Fatalf("step %d: Start: %v", i, err)
			}
		} else {
			got = f.svc.Stop()
		}
		if got != step.want {
			t.Errorf("step %d (%s): expected %s, got %s", i, step.op, step.want, got)
		}
	}
	if !f.svc.IsRunning() {
		t.Error("Expected service running after final start")
	}
}

func TestNightwatchService_NightTickAtBoundary(t *testing.T) {
	f := newFixture(weekdayAt(22), false)
	if _, err := f.svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !f.jobs.fire(domain.JobNightNotice) {
		t.Fatal("Expected night job registered")
	}
	if got := f.messages.texts(); !slices.Equal(got, []string{testTexts.NightBegin}) {
		t.Fatalf("Expected night begin notice, got %v", got)
	}
	if got := f.svc.Ledger(domain.CategoryNight); !slices.Equal(got, []string{"om_1"}) {
		t.Errorf("Expected ledger [om_1], got %v", got)
	}

	// Morning: old notice retracted, end notice posted
	f.clock.T = weekdayAt(8)
	f.jobs.fire(domain.JobNightNotice)
	if !slices.Equal(f.messages.deleted, []string{"om_1"}) {
		t.Errorf("Expected om_1 retracted, got %v", f.messages.deleted)
	}
	if got := f.svc.Ledger(domain.CategoryNight); !slices.Equal(got, []string{"om_2"}) {
		t.Errorf("Expected ledger [om_2], got %v", got)
	}
}

func TestNightwatchService_NightTickOffBoundaryIsNoop(t *testing.T) {
	f := newFixture(weekdayAt(23), false)
	f.svc.Start()

	f.jobs.fire(domain.JobNightNotice)
	if len(f.messages.sent) != 0 || len(f.messages.deleted) != 0 {
		t.Errorf("Expected no gateway calls, got sent=%v deleted=%v", f.messages.sent, f.messages.deleted)
	}
}

func TestNightwatchService_TickSendFailureLogged(t *testing.T) {
	f := newFixture(sundayAt(0), false)
	f.messages.sendErr = errSend
	f.svc.Start()

	// Must not panic; the error stays inside the tick
	f.jobs.fire(domain.JobVacationNotice)
	if got := f.svc.Ledger(domain.CategoryVacation); len(got) != 0 {
		t.Errorf("Expected empty ledger, got %v", got)
	}
}

func TestNightwatchService_TestNoticesIgnoreWindow(t *testing.T) {
	f := newFixture(weekdayAt(12), false)
	ctx := context.Background()

	if err := f.svc.TestNight(ctx); err != nil {
		t.Fatalf("TestNight: %v", err)
	}
	if err := f.svc.TestVacation(ctx); err != nil {
		t.Fatalf("TestVacation: %v", err)
	}

	want := []string{testTexts.NightEnd, testTexts.VacationDay}
	if got := f.messages.texts(); !slices.Equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if f.svc.IsRunning() {
		t.Error("Test notices must not start the jobs")
	}
}

func TestNightwatchService_TestNoticeError(t *testing.T) {
	f := newFixture(weekdayAt(12), false)
	f.messages.sendErr = errSend

	if err := f.svc.TestNight(context.Background()); err == nil {
		t.Error("Expected send error")
	}
}

func TestNightwatchService_OnMessage(t *testing.T) {
	tests := []struct {
		name     string
		now      int
		start    bool
		testMode bool
		topic    string
		want     usecase.Verdict
	}{
		{"stopped never deletes", 23, false, false, "om_night", usecase.VerdictKept},
		{"night topic at night", 23, true, false, "om_night", usecase.VerdictDeleted},
		{"night topic by day", 12, true, false, "om_night", usecase.VerdictKept},
		{"other topic at night", 23, true, false, "om_other", usecase.VerdictKept},
		{"test mode dry run", 23, true, true, "om_night", usecase.VerdictDryRun},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(weekdayAt(tt.now), tt.testMode)
			if tt.start {
				f.svc.Start()
			}

			got := f.svc.OnMessage(context.Background(), memberMessage(tt.topic))
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			wantDeleted := tt.want == usecase.VerdictDeleted
			if (len(f.messages.deleted) == 1) != wantDeleted {
				t.Errorf("Unexpected deletes %v", f.messages.deleted)
			}
		})
	}
}

func TestNightwatchService_Status(t *testing.T) {
	f := newFixture(sundayAt(23), true)
	f.svc.Start()
	f.svc.TestNight(context.Background())

	st := f.svc.Status()
	if !st.Running || !st.TestMode || !st.Night || !st.VacationDay {
		t.Errorf("Unexpected status %+v", st)
	}
	if !slices.Equal(st.NightLedger, []string{"om_1"}) || len(st.VacationLedger) != 0 {
		t.Errorf("Unexpected ledgers %+v", st)
	}
	if !f.svc.NightStatus() || !f.svc.VacationStatus() {
		t.Error("Expected night and vacation active")
	}
}

func TestNightwatchService_JournalWithoutStore(t *testing.T) {
	f := newFixture(weekdayAt(12), false)
	entries, err := f.svc.Journal(context.Background(), 10)
	if err != nil || entries != nil {
		t.Errorf("Expected no entries, got %v, %v", entries, err)
	}
}
