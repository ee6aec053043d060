package authflow

import "github.com/opensendlabs/dashboard_svc/internal/session"

// State is the single authoritative bootstrap state of a session. It is
// derived from a session snapshot by StateOf rather than tracked in scattered
// boolean flags, so every navigation attempt re-derives the same value from
// the same facts.
type State int

const (
	// StateUnauthenticated means no usable access token is present.
	StateUnauthenticated State = iota
	// StateAuthenticating means tokens exist but the profile is unfetched.
	StateAuthenticating
	// StateResolving means the view is known but permissions are not computed.
	StateResolving
	// StateAuthorized means the view and route permissions are both known.
	StateAuthorized
)

var stateNames = map[State]string{
	StateUnauthenticated: "UNAUTHENTICATED",
	StateAuthenticating:  "AUTHENTICATING",
	StateResolving:       "RESOLVING",
	StateAuthorized:      "AUTHORIZED",
}

// String names the state for logs and tests.
func (state State) String() string {
	name, known := stateNames[state]
	if !known {
		return "UNKNOWN"
	}
	return name
}

// StateOf derives the bootstrap state from a session snapshot. Pure function.
func StateOf(snapshot session.Snapshot) State {
	if snapshot.Tokens.AccessToken == "" {
		return StateUnauthenticated
	}
	if snapshot.View == nil {
		return StateAuthenticating
	}
	if snapshot.RoutePermissions == nil {
		return StateResolving
	}
	return StateAuthorized
}
