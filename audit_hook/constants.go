package audithook

// Action constants for audit events.
const (
	ActionParticipantRegistered = "participant.registered"

	ActionGroupCreated = "group.created"
	ActionMemberJoined = "member.joined"
	ActionMemberLeft   = "member.left"

	ActionTransactionRecorded = "transaction.recorded"

	ActionSettlementComputed = "settlement.computed"
	ActionResidualDetected   = "settlement.residual"
)

// Resource constants for audit events.
const (
	ResourceParticipant = "participant"
	ResourceGroup       = "group"
	ResourceTransaction = "transaction"
	ResourceSettlement  = "settlement"
)

// Category constants for audit events.
const (
	CategoryIdentity   = "identity"
	CategoryMembership = "membership"
	CategoryLedger     = "ledger"
	CategorySettlement = "settlement"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
