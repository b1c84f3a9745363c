package jobx

import (
	"encoding/json"
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	cases := []struct {
		status   Status
		terminal bool
	}{
		{StatusQueued, false},
		{StatusStarted, false},
		{StatusFinished, true},
		{StatusFailed, true},
	}
	for _, tc := range cases {
		if got := tc.status.Terminal(); got != tc.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tc.status, got, tc.terminal)
		}
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusQueued, StatusStarted, true},
		{StatusQueued, StatusFinished, false},
		{StatusStarted, StatusFinished, true},
		{StatusStarted, StatusFailed, true},
		{StatusStarted, StatusQueued, false},
		{StatusFinished, StatusStarted, false},
		{StatusFinished, StatusFailed, false},
		{StatusFailed, StatusQueued, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestRecordWireFormat(t *testing.T) {
	enqueued := time.UnixMilli(1700000000000).UTC()
	started := enqueued.Add(time.Second)
	errMsg := "boom"

	rec := Record{
		ID:         "3f1c2a44-0000-0000-0000-000000000001",
		Function:   "worker.ingest.parse_adb_xml",
		Args:       []string{"s3://astro-raw/upload.xml"},
		Kwargs:     map[string]string{"source": "astrodb-upload"},
		Status:     StatusFailed,
		EnqueuedAt: enqueued,
		StartedAt:  &started,
		Error:      &errMsg,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal wire: %v", err)
	}

	if got := wire["enqueuedAt"]; got != float64(1700000000000) {
		t.Errorf("enqueuedAt = %v, want 1700000000000", got)
	}
	if got := wire["startedAt"]; got != float64(1700000001000) {
		t.Errorf("startedAt = %v, want 1700000001000", got)
	}
	if wire["endedAt"] != nil {
		t.Errorf("endedAt = %v, want null", wire["endedAt"])
	}
	if got := wire["excInfo"]; got != "boom" {
		t.Errorf("excInfo = %v, want boom", got)
	}
	if _, present := wire["timeout"]; present {
		t.Error("retention hints must not leak into the wire format")
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if !back.EnqueuedAt.Equal(enqueued) {
		t.Errorf("EnqueuedAt = %v, want %v", back.EnqueuedAt, enqueued)
	}
	if back.StartedAt == nil || !back.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", back.StartedAt, started)
	}
	if back.EndedAt != nil {
		t.Errorf("EndedAt = %v, want nil", back.EndedAt)
	}
	if back.Error == nil || *back.Error != "boom" {
		t.Errorf("Error = %v, want boom", back.Error)
	}
}
