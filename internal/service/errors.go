package service

import (
	"errors"
	"strings"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrSignupDisabled = errors.New("signup disabled")
	ErrMisconfigured  = errors.New("auth config invalid")
)

// RejectReason says why a credential was refused. It is logged and counted
// but never sent to the client.
type RejectReason string

const (
	ReasonNoToken          RejectReason = "no_token"
	ReasonMalformed        RejectReason = "malformed"
	ReasonSignatureInvalid RejectReason = "signature_invalid"
	ReasonExpired          RejectReason = "expired"
	ReasonWrongType        RejectReason = "wrong_type"
	ReasonSessionRevoked   RejectReason = "session_revoked"
	ReasonIdentityMissing  RejectReason = "identity_missing"
	ReasonBadCredentials   RejectReason = "bad_credentials"
	ReasonRefreshReused    RejectReason = "refresh_reused"
	ReasonForbidden        RejectReason = "forbidden"
)

// AuthError wraps ErrUnauthorized or ErrForbidden with the internal reason.
type AuthError struct {
	Reason RejectReason
	err    error
}

func unauthorized(reason RejectReason) *AuthError {
	return &AuthError{Reason: reason, err: ErrUnauthorized}
}

func forbidden() *AuthError {
	return &AuthError{Reason: ReasonForbidden, err: ErrForbidden}
}

func (e *AuthError) Error() string { return e.err.Error() + ": " + string(e.Reason) }

func (e *AuthError) Unwrap() error { return e.err }

// ReasonOf extracts the reject reason from err, or "" if err is not an AuthError.
func ReasonOf(err error) RejectReason {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ""
}

// ValidationError lists every violated input rule. It matches ErrInvalidInput.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidInput.Error() + ": " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }
