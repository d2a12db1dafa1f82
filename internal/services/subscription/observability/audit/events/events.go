// Package events defines canonical subscription audit event names.
package events

const (
	// AuthzDecision records whether a caller was allowed to run an admin command.
	AuthzDecision = "subscription.authz.decision"
	// CommandExecuted records an admin command that completed.
	CommandExecuted = "subscription.command.executed"
	// CommandFailed records an admin command that returned an error.
	CommandFailed = "subscription.command.failed"
	// InstructionsEnqueued records settlement instructions handed to the outbox.
	InstructionsEnqueued = "subscription.settlement.enqueued"
)

// Outcomes attached to audit events.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
	OutcomeOK      = "ok"
)
