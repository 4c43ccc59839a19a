package engine

import "fmt"

// ValidationError reports a malformed rule, owner, or import request. It
// is fatal to the call that produced it and names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// DuplicateImportError means the idempotency guard tripped: this exact
// statement content was already imported for the owner, cycle, and parent.
// Retrying with identical content fails the same way; nothing is created.
type DuplicateImportError struct {
	BillingCycle string
}

func (e *DuplicateImportError) Error() string {
	return fmt.Sprintf("statement already imported for billing cycle %s", e.BillingCycle)
}

// PersistenceError wraps a storage failure. The enclosing operation was
// rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
