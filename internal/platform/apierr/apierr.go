package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups errors by how the caller is expected to react.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUpstream     Kind = "upstream"
	KindPrecondition Kind = "precondition"
	KindMedia        Kind = "media"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

type Error struct {
	Status int
	Code   string
	Kind   Kind
	Err    error
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

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Kind: kindForStatus(status), Err: err}
}

func Validation(code string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Kind: KindValidation, Err: err}
}

func Upstream(code string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: code, Kind: KindUpstream, Err: err}
}

func Precondition(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Kind: KindPrecondition, Err: err}
}

func Media(code string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: code, Kind: KindMedia, Err: err}
}

func NotFound(code string, err error) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Kind: KindNotFound, Err: err}
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}

// StatusCode resolves the HTTP status for err, 500 when unclassified.
func StatusCode(err error) (int, string) {
	if ae, ok := As(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := ae.Code
		if code == "" {
			code = string(ae.Kind)
		}
		return status, code
	}
	return http.StatusInternalServerError, "internal_error"
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusConflict:
		return KindPrecondition
	case status >= 400 && status < 500:
		return KindValidation
	case status == http.StatusBadGateway:
		return KindUpstream
	default:
		return KindInternal
	}
}
