package state

// PollState labels a poll's lifecycle. A poll only ever moves from open to
// closed, whether the close came from the scheduled expiry, a manual end, or
// startup reconciliation; closed is terminal, so there is no transition table
// to consult.
type PollState string

const (
	PollOpen   PollState = "open"
	PollClosed PollState = "closed"
)

func (s PollState) String() string {
	return string(s)
}
