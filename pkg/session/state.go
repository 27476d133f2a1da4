package session

// State is the lifecycle position of a Session.
type State int

const (
	Created State = iota
	Configuring
	Running
	AwaitingPassword
	Completed
	Failed
)

var stateNames = [...]string{
	Created:          "created",
	Configuring:      "configuring",
	Running:          "running",
	AwaitingPassword: "awaiting-password",
	Completed:        "completed",
	Failed:           "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
