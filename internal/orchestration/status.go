// Package orchestration writes the orchestration status file (spec.md §6
// "Files"), the one artifact external health probes and upgrade tooling
// read to learn whether the agent's last policy/manifest update succeeded.
// Grounded on internal/adapter/outbound/artifact.Store's atomic write
// sequence, the same one the policy compiler's Rulebase artifact uses.
package orchestration

import (
	"context"
	"log/slog"
	"time"

	"github.com/openappsec-go/agentcore/internal/adapter/outbound/artifact"
	"github.com/openappsec-go/agentcore/internal/config"
)

// Status is the JSON shape spec.md §6 names field-for-field; the field
// names carry spaces to match the wire format external tooling already
// parses.
type Status struct {
	LastUpdateAttempt  string `json:"Last update attempt"`
	LastUpdateStatus   string `json:"Last update status"`
	LastUpdate         string `json:"Last update"`
	LastManifestUpdate string `json:"Last manifest update"`
	PolicyVersion      string `json:"Policy version"`
	LastPolicyUpdate   string `json:"Last policy update"`
	LastSettingsUpdate string `json:"Last settings update"`
	UpgradeMode        string `json:"Upgrade mode"`
	FogAddress         string `json:"Fog address"`
	RegistrationStatus string `json:"Registration status"`
	RegistrationDetail string `json:"Registration details"`
	AgentID            string `json:"Agent ID"`
	ProfileID          string `json:"Profile ID"`
	TenantID           string `json:"Tenant ID"`
	ManifestStatus     string `json:"Manifest status"`
	ServicePolicy      string `json:"Service policy"`
	ServiceSettings    string `json:"Service settings"`
}

// Writer persists Status to the configured StatusPath, honoring the
// CLOUDGUARD_APPSEC_STANDALONE override (spec.md §6 "Environment
// variables").
type Writer struct {
	store  *artifact.Store[Status]
	logger *slog.Logger
}

// NewWriter builds a Writer backed by path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{store: artifact.NewStore[Status](path, logger), logger: logger}
}

// RecordAttempt loads the current status (if any), applies the outcome of
// one orchestration cycle (policy recompile + settings write), and persists
// the result. success controls "Last update status" and, when true, refreshes
// "Last update"/"Last policy update" to now.
func (w *Writer) RecordAttempt(ctx context.Context, agentID, profileID, tenantID, fogAddress, policyVersion string, success bool) error {
	status, _, err := w.store.Load()
	if err != nil {
		w.logger.WarnContext(ctx, "failed to load existing orchestration status, starting fresh", "error", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	status.LastUpdateAttempt = now
	status.AgentID = agentID
	status.ProfileID = profileID
	status.TenantID = tenantID
	status.FogAddress = fogAddress
	status.PolicyVersion = policyVersion

	if success {
		status.LastUpdateStatus = "Succeeded"
		status.LastUpdate = now
		status.LastPolicyUpdate = now
		status.ServicePolicy = "Installed"
	} else {
		status.LastUpdateStatus = "Failed"
		status.ServicePolicy = "Failed"
	}

	if config.StandaloneManifestOverride() {
		status.ManifestStatus = "Succeeded"
	} else if status.ManifestStatus == "" {
		status.ManifestStatus = "Unknown"
	}

	return w.store.Save(status)
}

// RecordRegistration updates the registration-related fields independently
// of a policy recompile cycle, since registration happens once at startup.
func (w *Writer) RecordRegistration(ctx context.Context, registered bool, detail string) error {
	status, _, err := w.store.Load()
	if err != nil {
		w.logger.WarnContext(ctx, "failed to load existing orchestration status, starting fresh", "error", err)
	}
	if registered {
		status.RegistrationStatus = "Succeeded"
	} else {
		status.RegistrationStatus = "Failed"
	}
	status.RegistrationDetail = detail
	return w.store.Save(status)
}
