package orchestration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecordAttempt_SuccessSetsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestration_status.json")
	w := NewWriter(path, testLogger())

	if err := w.RecordAttempt(context.Background(), "agent-1", "profile-1", "tenant-1", "fog.example.com:443", "v3", true); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading status file: %v", err)
	}
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshaling status: %v", err)
	}

	if status.LastUpdateStatus != "Succeeded" {
		t.Errorf("LastUpdateStatus = %q, want Succeeded", status.LastUpdateStatus)
	}
	if status.ServicePolicy != "Installed" {
		t.Errorf("ServicePolicy = %q, want Installed", status.ServicePolicy)
	}
	if status.LastUpdate == "" || status.LastPolicyUpdate == "" {
		t.Errorf("expected LastUpdate/LastPolicyUpdate to be stamped on success")
	}
	if status.AgentID != "agent-1" || status.TenantID != "tenant-1" {
		t.Errorf("identity fields not persisted: %+v", status)
	}
}

func TestRecordAttempt_FailureDoesNotStampLastUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestration_status.json")
	w := NewWriter(path, testLogger())

	if err := w.RecordAttempt(context.Background(), "agent-1", "profile-1", "tenant-1", "fog.example.com:443", "", false); err != nil {
		t.Fatalf("RecordAttempt: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading status file: %v", err)
	}
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshaling status: %v", err)
	}

	if status.LastUpdateStatus != "Failed" {
		t.Errorf("LastUpdateStatus = %q, want Failed", status.LastUpdateStatus)
	}
	if status.ServicePolicy != "Failed" {
		t.Errorf("ServicePolicy = %q, want Failed", status.ServicePolicy)
	}
	if status.LastUpdate != "" {
		t.Errorf("LastUpdate = %q, want empty on a failed attempt", status.LastUpdate)
	}
}

func TestRecordAttempt_PreservesPriorSuccessAcrossFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestration_status.json")
	w := NewWriter(path, testLogger())

	if err := w.RecordAttempt(context.Background(), "agent-1", "profile-1", "tenant-1", "fog.example.com:443", "v3", true); err != nil {
		t.Fatalf("RecordAttempt (success): %v", err)
	}
	data, _ := os.ReadFile(path)
	var afterSuccess Status
	_ = json.Unmarshal(data, &afterSuccess)

	if err := w.RecordAttempt(context.Background(), "agent-1", "profile-1", "tenant-1", "fog.example.com:443", "v3", false); err != nil {
		t.Fatalf("RecordAttempt (failure): %v", err)
	}
	data, _ = os.ReadFile(path)
	var afterFailure Status
	_ = json.Unmarshal(data, &afterFailure)

	if afterFailure.LastUpdate != afterSuccess.LastUpdate {
		t.Errorf("a later failed attempt must not clobber the last successful update timestamp: got %q, want %q",
			afterFailure.LastUpdate, afterSuccess.LastUpdate)
	}
	if afterFailure.LastUpdateStatus != "Failed" {
		t.Errorf("LastUpdateStatus = %q, want Failed", afterFailure.LastUpdateStatus)
	}
}

func TestRecordRegistration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orchestration_status.json")
	w := NewWriter(path, testLogger())

	if err := w.RecordRegistration(context.Background(), true, "registered via fog"); err != nil {
		t.Fatalf("RecordRegistration: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading status file: %v", err)
	}
	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		t.Fatalf("unmarshaling status: %v", err)
	}
	if status.RegistrationStatus != "Succeeded" {
		t.Errorf("RegistrationStatus = %q, want Succeeded", status.RegistrationStatus)
	}
	if status.RegistrationDetail != "registered via fog" {
		t.Errorf("RegistrationDetail = %q, want %q", status.RegistrationDetail, "registered via fog")
	}
}
