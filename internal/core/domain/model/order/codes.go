package order

// Message codes filed as order problems.
const (
	CodeStateRequired           = "TO_STATE_CHANGE_NULL_STATE"
	CodeStateFinal              = "TO_STATE_CHANGE_FINAL_STATE"
	CodeBackwardsNotAllowed     = "TO_STATE_CHANGE_BACKWARDS_NOT_ALLOWED"
	CodeTransitionNotAllowed    = "TO_STATE_CHANGE_NOT_ALLOWED"
	CodeNotReady                = "TO_STATE_CHANGE_NOT_READY"
	CodeAlreadyStartedOne       = "START_TO_NOT_ALLOWED_ALREADY_STARTED_ONE"
	CodeTargetBlocked           = "TARGET_BLOCKED"
	CodeNoValidTarget           = "TO_NO_VALID_TARGET"
	CodeNotRedirectable         = "TO_NOT_REDIRECTABLE"
	CodeCanceled                = "TO_CANCELED"
	CodeCanceledByUnitRemoval   = "TO_CANCELED_BY_UNIT_REMOVAL"
	CodeUnlinkedByUnitRemoval   = "TO_UNLINKED_BY_UNIT_REMOVAL"
	CodeStartNegotiationFailed  = "START_NEGOTIATION_FAILED"
	CodeStartNegotiationTimeout = "START_NEGOTIATION_TIMEOUT"
	CodeUnitNotFound            = "TU_NOT_FOUND"
)
