package state

type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionSignupOpen SessionState = "signup_open"
	SessionLocked     SessionState = "locked"
	SessionSettled    SessionState = "settled"
)

func (s SessionState) String() string {
	return string(s)
}

var AllSessionStates = []SessionState{
	SessionIdle,
	SessionSignupOpen,
	SessionLocked,
	SessionSettled,
}

type SessionTransition struct {
	From SessionState
	To   SessionState
}

// ValidSessionTransitions. Locked goes back to signup for the next round, or
// to settled when rounds run out, the table is short, or the run is aborted.
var ValidSessionTransitions = []SessionTransition{
	{From: SessionIdle, To: SessionSignupOpen},
	{From: SessionSignupOpen, To: SessionLocked},
	{From: SessionSignupOpen, To: SessionSettled},
	{From: SessionLocked, To: SessionSignupOpen},
	{From: SessionLocked, To: SessionSettled},
}

func IsValidSessionTransition(from, to SessionState) bool {
	for _, t := range ValidSessionTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
