package services

import (
	"context"
	"errors"
	"fmt"

	"energyshare/internal/apiclient"
)

var (
	// ErrNetwork wraps transport failures: the backend was never reached or
	// the connection broke before an answer came back.
	ErrNetwork          = errors.New("network error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrAlreadyTracking  = errors.New("payment is already being tracked")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
)

// Backend is the subset of apiclient.Client the services use.
type Backend interface {
	Get(ctx context.Context, path string) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Patch(ctx context.Context, path string, body any) (*apiclient.Response, error)
}

// result folds a backend answer into one error: ErrNetwork for transport
// failures, the *apiclient.APIError for non-2xx answers. On success the body
// is decoded into out when out is not nil.
func result(resp *apiclient.Response, err error, out any) error {
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.Failed() {
		return resp.Err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// InputError is a request the BFF refuses before calling the backend.
type InputError struct {
	Field string
	Msg   string
}

func (e *InputError) Error() string { return e.Msg }

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(field, msg string) error {
	return &InputError{Field: field, Msg: msg}
}
