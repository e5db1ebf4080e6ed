package hub

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/tidwall/gjson"
)

// ErrorKind categorizes client errors.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindStatus
	KindInvalidResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindInvalidResponse:
		return "invalid response"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// wrapTransportError turns an error from the transport into an *Error.
// Non-2xx responses surface as KindStatus with the service's detail text.
func wrapTransportError(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := fmt.Sprintf("%s: %d %s", op, apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
		if detail := errorDetail(apiErr); detail != "" {
			msg += ": " + detail
		}
		return &Error{Kind: KindStatus, StatusCode: apiErr.StatusCode, Message: msg}
	}
	return &Error{Kind: KindTransport, Message: op, Cause: err}
}

// errorDetail extracts the service's message from a failed response. The
// transport only decodes an "error" key, so the body is read again; the
// transport leaves it rewound to an in-memory buffer.
func errorDetail(apiErr *openai.Error) string {
	if apiErr.Response == nil || apiErr.Response.Body == nil {
		return gjson.Get(apiErr.RawJSON(), "detail").String()
	}
	body, err := io.ReadAll(io.LimitReader(apiErr.Response.Body, 64<<10))
	if err != nil {
		return ""
	}
	if !gjson.ValidBytes(body) {
		return truncate(strings.TrimSpace(string(body)), 200)
	}
	for _, path := range []string{"detail", "message", "error"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
