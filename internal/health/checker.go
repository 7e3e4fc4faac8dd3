package health

// Checker is a strategy that determines whether the supervised application is
// responsive. Implementations must be safe for concurrent use.
type Checker interface {
	// Check returns nil when the application is healthy. Any non-nil error
	// (connection refused, timeout, bad status, non-zero exit) counts as one
	// probe failure; the error itself is never fatal on its own.
	Check() error
	// Describe returns a human-readable description of the check method.
	Describe() string
}
