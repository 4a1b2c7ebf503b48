package domain

// Status represents the lifecycle state of a client session.
type Status string

const (
	StatusInitializing    Status = "initializing"
	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticating  Status = "authenticating"
	StatusAuthenticated   Status = "authenticated"
)

// validTransitions defines the session state machine. Re-entering the same
// state is always allowed (e.g. a second logout). A login issued before the
// bootstrap finished moves straight from Initializing to Authenticating.
var validTransitions = map[Status][]Status{
	StatusInitializing:    {StatusUnauthenticated, StatusAuthenticated, StatusAuthenticating},
	StatusUnauthenticated: {StatusAuthenticating},
	StatusAuthenticating:  {StatusAuthenticated, StatusUnauthenticated},
	StatusAuthenticated:   {StatusUnauthenticated, StatusAuthenticating},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// Snapshot is a consistent, copyable view of a session at one instant.
type Snapshot struct {
	Status  Status
	User    *User
	Token   string
	Loading bool
}

// Authenticated reports whether the snapshot holds a confirmed identity.
func (s Snapshot) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}
