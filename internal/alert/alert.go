// Package alert implements the structured LogGen-equivalent the policy
// compiler emits when a compilation aborts (spec.md §7 "Error handling
// design"): a slog record carrying the tag/audience/severity/priority
// attributes and the stable notificationId a downstream log consumer keys
// its alerting rules on. Grounded on the teacher's structured audit
// logging call sites (internal/adapter/outbound/audit,
// internal/adapter/inbound/admin/audit_handlers.go), which likewise emit
// one structured slog record per security-relevant event rather than a
// free-text message.
package alert

import (
	"context"
	"log/slog"
)

// PolicyInstallationNotificationID is the stable identifier spec.md §7
// assigns to every policy-installation-failure alert, letting downstream
// log consumers key an alert rule on it regardless of the human-readable
// message.
const PolicyInstallationNotificationID = "4165c3b1-e9bc-44c3-888b-863e204c1bfb"

// Tag mirrors the original LogGen's tag taxonomy; the core only ever emits
// PolicyInstallation, but the type exists so future alert sources don't
// invent their own ad hoc string constants.
type Tag string

// PolicyInstallation is the only tag emitted by this package today.
const PolicyInstallation Tag = "POLICY_INSTALLATION"

// Audience mirrors LogGen's intended-reader classification.
type Audience string

// Security is the audience for every alert this package emits.
const Security Audience = "SECURITY"

// Severity mirrors LogGen's severity scale.
type Severity string

// Critical is the severity for every alert this package emits.
const Critical Severity = "CRITICAL"

// Priority mirrors LogGen's delivery-priority scale.
type Priority string

// Urgent is the priority for every alert this package emits.
const Urgent Priority = "URGENT"

// PolicyInstallationFailed emits the structured alert spec.md §7 requires
// when the policy compiler aborts a compilation: tag POLICY_INSTALLATION,
// audience SECURITY, severity CRITICAL, priority URGENT, and the stable
// notificationId, so downstream log consumers can alert regardless of the
// human-readable reason text.
func PolicyInstallationFailed(ctx context.Context, logger *slog.Logger, assetName string, cause error) {
	logger.ErrorContext(ctx, "policy installation failed",
		slog.String("tag", string(PolicyInstallation)),
		slog.String("audience", string(Security)),
		slog.String("severity", string(Critical)),
		slog.String("priority", string(Urgent)),
		slog.String("notification_id", PolicyInstallationNotificationID),
		slog.String("asset_name", assetName),
		slog.Any("error", cause),
	)
}
