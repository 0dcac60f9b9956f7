package apierr

import "fmt"

// Error carries the HTTP status and machine-readable code a handler should render.
// Details is optional structured context (for example the caller's current balance
// on a rate-limited award).
type Error struct {
	Status  int
	Code    string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetails returns e after merging kv into its details.
func (e *Error) WithDetails(kv map[string]any) *Error {
	if e == nil || len(kv) == 0 {
		return e
	}
	if e.Details == nil {
		e.Details = make(map[string]any, len(kv))
	}
	for k, v := range kv {
		e.Details[k] = v
	}
	return e
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
