package postgrest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bcnelson/apikey-console/internal/domain"
	"github.com/tidwall/gjson"
)

// CodeNoRows is returned when a single-object request matches zero or several rows.
const CodeNoRows = "PGRST116"

// Error is a non-2xx answer from PostgREST.
type Error struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "postgrest %d", e.StatusCode)
	if e.Code != "" {
		fmt.Fprintf(&b, " %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

// Unwrap classifies the error for errors.Is checks.
func (e *Error) Unwrap() error {
	if e.Code == CodeNoRows {
		return domain.ErrNotFound
	}
	return domain.ErrStoreFailure
}

// parseError reads the PostgREST error envelope. Bodies that are not JSON
// (gateway pages, empty bodies) keep the HTTP status text as the message.
func parseError(status int, body []byte) *Error {
	e := &Error{StatusCode: status}
	if gjson.ValidBytes(body) {
		res := gjson.ParseBytes(body)
		e.Code = res.Get("code").String()
		e.Message = res.Get("message").String()
		e.Details = res.Get("details").String()
		e.Hint = res.Get("hint").String()
		if e.Message == "" {
			e.Message = res.Get("error").String()
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
