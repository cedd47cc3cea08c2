package outpass

// transition is a single allowed edge of the outpass lifecycle.
type transition struct {
	From Status
	To   Status
}

var transitionsTable = []transition{
	// admin review
	{From: StatusPending, To: StatusApproved},
	{From: StatusPending, To: StatusRejected},

	// student withdraws before leaving
	{From: StatusApproved, To: StatusCancelled},

	// gate
	{From: StatusApproved, To: StatusExited},
	{From: StatusExited, To: StatusReturned},
	{From: StatusLate, To: StatusReturned},

	// overdue sweep
	{From: StatusExited, To: StatusLate},
}

// CanTransition reports whether an outpass may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.To == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	for _, tr := range transitionsTable {
		if tr.From == s {
			return false
		}
	}
	return true
}
