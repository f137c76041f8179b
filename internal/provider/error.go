package provider

import "fmt"

// Failure reasons recorded on Error. The chain logs these; they never
// reach the HTTP surface directly.
const (
	ReasonNoCredential = "missing credential"
	ReasonDisabled     = "disabled by config"
	ReasonTimeout      = "timeout"
	ReasonUpstream     = "upstream status"
	ReasonBadPayload   = "bad payload"
	ReasonNotFound     = "symbol not found"
	ReasonThrottled    = "throttled"
)

// Error is a provider-level fetch failure: which provider, which symbol,
// and why. Wraps the underlying cause when there is one.
type Error struct {
	Provider string
	Symbol   string
	Reason   string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s: %s", e.Provider, e.Symbol, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }
