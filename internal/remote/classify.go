// internal/remote/classify.go
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind is the failure taxonomy shared by the poller and the dispatcher.
type Kind uint8

const (
	KindNone Kind = iota
	KindTimeout
	KindConnectionFailure
	KindUnexpectedStatus
	KindMalformedResponse
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTimeout:
		return "timeout"
	case KindConnectionFailure:
		return "connection_failure"
	case KindUnexpectedStatus:
		return "unexpected_status"
	case KindMalformedResponse:
		return "malformed_response"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Failure is one classified outcome of a remote call.
// StatusCode is zero when no response was received.
type Failure struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (f *Failure) Error() string { return f.Message() }

func (f *Failure) Unwrap() error { return f.Err }

// Message is the user-visible text for the failure.
func (f *Failure) Message() string {
	if f == nil {
		return ""
	}
	switch f.Kind {
	case KindTimeout:
		return "timeout"
	case KindUnexpectedStatus:
		return fmt.Sprintf("unexpected status %d", f.StatusCode)
	case KindMalformedResponse:
		return "invalid response body"
	case KindConnectionFailure:
		if f.Err == nil {
			return "connection failure"
		}
		// url.Error repeats method and URL; keep the cause only.
		var ue *url.Error
		if errors.As(f.Err, &ue) && ue.Err != nil {
			return ue.Err.Error()
		}
		return f.Err.Error()
	default:
		if f.Err != nil {
			return f.Err.Error()
		}
		return ""
	}
}

// Classify maps a transport-level error (no usable response) onto
// KindTimeout or KindConnectionFailure. Nil in, nil out.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if IsTimeout(err) {
		return &Failure{Kind: KindTimeout, Err: err}
	}
	return &Failure{Kind: KindConnectionFailure, Err: err}
}

// StatusFailure classifies a response whose status is not 200.
func StatusFailure(code int) *Failure {
	return &Failure{
		Kind:       KindUnexpectedStatus,
		StatusCode: code,
		Err:        fmt.Errorf("unexpected status %d", code),
	}
}

// Malformed classifies a 200 response whose body could not be decoded.
func Malformed(code int, err error) *Failure {
	return &Failure{Kind: KindMalformedResponse, StatusCode: code, Err: err}
}

// IsTimeout reports deadline expiry, from either the context or the net stack.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
