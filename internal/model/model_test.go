package model

import (
	"errors"
	"testing"
)

func TestNewBatchReportOrdersByOrdinal(t *testing.T) {
	results := []JobResult{
		{Job: Job{Ordinal: 3}, Outcome: OutcomeFailed, Err: errors.New("boom")},
		{Job: Job{Ordinal: 1}, Outcome: OutcomeSucceeded},
		{Job: Job{Ordinal: 2}, Outcome: OutcomeCancelled},
	}
	report := NewBatchReport(results)

	got := report.Results()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, res := range got {
		if res.Job.Ordinal != i+1 {
			t.Errorf("result %d has ordinal %d", i, res.Job.Ordinal)
		}
	}
}

func TestBatchReportCounts(t *testing.T) {
	report := NewBatchReport([]JobResult{
		{Job: Job{Ordinal: 1}, Outcome: OutcomeSucceeded},
		{Job: Job{Ordinal: 2}, Outcome: OutcomeSucceeded},
		{Job: Job{Ordinal: 3}, Outcome: OutcomeFailed},
		{Job: Job{Ordinal: 4}, Outcome: OutcomeCancelled},
	})
	if report.Len() != 4 {
		t.Errorf("Len = %d, want 4", report.Len())
	}
	if report.Succeeded() != 2 || report.Failed() != 1 || report.Cancelled() != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1",
			report.Succeeded(), report.Failed(), report.Cancelled())
	}
	if report.Succeeded()+report.Failed()+report.Cancelled() != report.Len() {
		t.Error("counts do not sum to Len")
	}
}

func TestBatchReportResultsIsACopy(t *testing.T) {
	report := NewBatchReport([]JobResult{{Job: Job{Ordinal: 1}, Outcome: OutcomeSucceeded}})
	rs := report.Results()
	rs[0].Outcome = OutcomeFailed
	if report.Succeeded() != 1 {
		t.Error("mutating Results() leaked into the report")
	}
}

func TestNewJobAssignsUniqueIDs(t *testing.T) {
	a := NewJob(1, "https://youtu.be/a", "", ".", QualityBest, ModeAudio)
	b := NewJob(2, "https://youtu.be/b", "", ".", QualityBest, ModeAudio)
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("job IDs not unique: %q vs %q", a.ID, b.ID)
	}
}

func TestValidQuality(t *testing.T) {
	for _, q := range []Quality{QualityBest, Quality1080p, Quality720p, Quality480p, QualityWorst} {
		if !ValidQuality(q) {
			t.Errorf("ValidQuality(%q) = false", q)
		}
	}
	if ValidQuality("240p") {
		t.Error("unknown quality accepted")
	}
}
