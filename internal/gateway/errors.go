package gateway

import "fmt"

// ConnectionError reports a failed connect operation: dialect resolution,
// the physical connection attempt, or the initial schema snapshot.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect: %v", e.Cause)
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// NotFoundError reports an operation against an unknown connection id.
// Disconnected and never-registered ids are indistinguishable.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("invalid connection id %q: connect to the database first", e.ID)
}

// DisconnectError reports a handle release failure. The registry entry is
// removed regardless, so the id is gone either way.
type DisconnectError struct {
	Cause error
}

func (e *DisconnectError) Error() string {
	return fmt.Sprintf("failed to disconnect: %v", e.Cause)
}

func (e *DisconnectError) Unwrap() error { return e.Cause }

// IntrospectionError reports a failed fresh introspection against a live
// connection.
type IntrospectionError struct {
	Table string
	Cause error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("failed to describe table %s: %v", e.Table, e.Cause)
}

func (e *IntrospectionError) Unwrap() error { return e.Cause }

// ExecutionError reports a failed query execution. The driver message is
// preserved for the caller to act on.
type ExecutionError struct {
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }
