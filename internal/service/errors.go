package service

import "fmt"

// Conflict reasons returned to callers so they know which input to change.
const (
	ReasonFamilyNameTaken = "family_name_taken"
	ReasonRequestPending  = "request_pending"
	ReasonEmailRegistered = "email_registered"
)

// ConflictError signals a duplicate family name, email, or pending request.
// The caller can recover by changing the conflicting input.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// NotFoundError signals an unknown request id.
type NotFoundError struct {
	RequestID string
}

func (e *NotFoundError) Error() string {
	return "onboarding request not found: " + e.RequestID
}

// InvalidStateError signals a review attempted on a request that is no
// longer pending. Approved and rejected are terminal states.
type InvalidStateError struct {
	RequestID string
	Status    string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("request %s is not pending (status: %s)", e.RequestID, e.Status)
}

// IdentityProviderError signals an identity-provider failure other than
// "account already exists" (which Approve tolerates).
type IdentityProviderError struct {
	Err error
}

func (e *IdentityProviderError) Error() string {
	return "identity provider error: " + e.Err.Error()
}

func (e *IdentityProviderError) Unwrap() error {
	return e.Err
}

// StoreError signals a persistence failure. During Approve this can mean a
// partial commit: earlier sub-steps may already have succeeded, and the
// error must surface rather than report a silent inconsistent success.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
