package tui

import (
	"errors"
	"testing"
	"time"

	"igcollect/pkg/models"
)

func TestModelBatchLifecycle(t *testing.T) {
	model := NewModel("followers", "someaccount")
	model.SetBatchTotal(3)

	model.StartBatch(1, 50)
	model.StartBatch(2, 50)

	if len(model.batches) != 2 {
		t.Errorf("Expected 2 batches, got %d", len(model.batches))
	}

	model.SetBatchStatus(1, models.RunStatusRunning)
	if model.batches[1].Status != models.RunStatusRunning {
		t.Errorf("Expected batch 1 running, got %s", model.batches[1].Status)
	}

	model.FinishBatch(1, 1200, nil)
	if model.batches[1].Status != models.RunStatusSucceeded {
		t.Errorf("Expected batch 1 succeeded, got %s", model.batches[1].Status)
	}
	if model.Records() != 1200 {
		t.Errorf("Expected 1200 records, got %d", model.Records())
	}

	model.FinishBatch(2, 0, errors.New("run failed remotely"))
	if model.batches[2].Status != models.RunStatusFailed {
		t.Errorf("Expected batch 2 failed, got %s", model.batches[2].Status)
	}
	if model.Records() != 1200 {
		t.Errorf("Failed batch must not add records, got %d", model.Records())
	}

	frac := model.completedFraction()
	want := 2.0 / 3.0
	if frac < want-0.01 || frac > want+0.01 {
		t.Errorf("Expected fraction ~%f, got %f", want, frac)
	}
}

func TestModelUnitProgress(t *testing.T) {
	model := NewModel("enrich", "")

	model.SetUnitProgress(10, 40, 10)
	if model.completedFraction() != 0.25 {
		t.Errorf("Expected fraction 0.25, got %f", model.completedFraction())
	}
	if model.Records() != 10 {
		t.Errorf("Expected 10 records, got %d", model.Records())
	}
}

func TestModelBackoffAndLogs(t *testing.T) {
	model := NewModel("followers", "someaccount")

	until := time.Now().Add(time.Minute)
	model.SetBackoff(until, "rate limited")
	if !model.backoffUntil.Equal(until) {
		t.Errorf("Expected backoff until %v, got %v", until, model.backoffUntil)
	}

	for i := 0; i < maxLogMessages+3; i++ {
		model.AddLogMessage("INFO", "line")
	}
	if len(model.logMessages) != maxLogMessages {
		t.Errorf("Expected log capped at %d, got %d", maxLogMessages, len(model.logMessages))
	}
}

func TestModelActiveBatchesOrder(t *testing.T) {
	model := NewModel("comments", "someaccount")
	for i := 1; i <= 10; i++ {
		model.StartBatch(i, 20)
	}

	recent := model.activeBatches(6)
	if len(recent) != 6 {
		t.Fatalf("Expected 6 batches, got %d", len(recent))
	}
	if recent[0].Number != 5 || recent[5].Number != 10 {
		t.Errorf("Expected batches 5..10, got %d..%d", recent[0].Number, recent[5].Number)
	}
}

func TestFormatCount(t *testing.T) {
	tests := []struct {
		n        int
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}

	for _, test := range tests {
		result := FormatCount(test.n)
		if result != test.expected {
			t.Errorf("FormatCount(%d) = %s, expected %s", test.n, result, test.expected)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m30s"},
		{3900 * time.Second, "1h05m"},
	}

	for _, test := range tests {
		result := FormatDuration(test.d)
		if result != test.expected {
			t.Errorf("FormatDuration(%v) = %s, expected %s", test.d, result, test.expected)
		}
	}
}
