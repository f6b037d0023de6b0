package schema

import "fmt"

// ValidationError reports why a requested command could not become an
// Action. It is returned before anything touches the network, so a caller
// seeing one should fix the command, not the connection.
type ValidationError struct {
	// Kind is the requested command kind.
	Kind Kind

	// Param names the offending parameter, when one is at fault.
	Param string

	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("schema: %s: parameter %q: %s", e.Kind, e.Param, e.Reason)
	}
	return fmt.Sprintf("schema: %s: %s", e.Kind, e.Reason)
}
