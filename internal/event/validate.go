package event

// Validate checks the discriminant fields and payload shape of e.
func Validate(e Event) error {
	if e.Origin.TurnID < 0 {
		return invalid("origin.turn_id", "turn id must not be negative")
	}
	if e.Origin.BranchID < 0 {
		return invalid("origin.branch_id", "branch id must not be negative")
	}
	if e.Payload == nil {
		return invalid("payload", "payload is required")
	}
	return e.Payload.validate()
}
