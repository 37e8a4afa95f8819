package twitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/lukehollenback/birdcall/platform"
)

// Twitter API error codes which get special handling
const (
	codeSuspended         = 64
	codeNotFound          = 144
	codeBlocked           = 136
	codeAlreadyFavorited  = 139
	codeFollowRequested   = 160
	codeFollowLimit       = 161
	codeProtected         = 179
	codeLocked            = 326
	codeAlreadyRetweeted  = 327
	codeRateLimitExceeded = 88
)

type APIError struct {
	StatusCode int
	// first Twitter error code in the response body, if any
	Code      int
	Message   string
	Ratelimit *RatelimitInfo
}

func (ae *APIError) Error() string {
	if ae.Code != 0 && ae.Message != "" {
		return fmt.Sprintf("API request failed (HTTP %d): %d: %s", ae.StatusCode, ae.Code, ae.Message)
	} else if ae.Message != "" {
		return fmt.Sprintf("API request failed (HTTP %d): %s", ae.StatusCode, ae.Message)
	}
	return fmt.Sprintf("API request failed (HTTP %d)", ae.StatusCode)
}

func (ae *APIError) IsThrottled() bool {
	return ae.StatusCode == http.StatusTooManyRequests || ae.Code == codeRateLimitExceeded
}

type RatelimitInfo struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

type ErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	// some endpoints (eg, media upload) use a single string
	Error string `json:"error"`
}

func errorFromHTTPResponse(resp *http.Response) error {
	ae := &APIError{
		StatusCode: resp.StatusCode,
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var eb ErrorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if len(eb.Errors) > 0 {
			ae.Code = eb.Errors[0].Code
			ae.Message = eb.Errors[0].Message
		} else if eb.Error != "" {
			ae.Message = eb.Error
		}
	}
	if resp.Header.Get("x-rate-limit-limit") != "" {
		ae.Ratelimit = &RatelimitInfo{}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-reset"), 10, 64); err == nil {
			ae.Ratelimit.Reset = time.Unix(n, 0)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-limit"), 10, 64); err == nil {
			ae.Ratelimit.Limit = int(n)
		}
		if n, err := strconv.ParseInt(resp.Header.Get("x-rate-limit-remaining"), 10, 64); err == nil {
			ae.Ratelimit.Remaining = int(n)
		}
	}
	return ae
}

// Wraps the failure of a mutation call as a *platform.MutationError, classifying it by the
// Twitter error code (or HTTP status).
func mutationError(m platform.Mutation, target string, err error) error {
	me := &platform.MutationError{
		Mutation: m,
		Kind:     platform.KindTransport,
		Target:   target,
		Message:  err.Error(),
		Wrapped:  err,
	}
	var ae *APIError
	if !errors.As(err, &ae) {
		return me
	}
	if ae.Message != "" {
		me.Message = ae.Message
	}
	switch {
	case ae.Code == codeAlreadyRetweeted, ae.Code == codeAlreadyFavorited, ae.Code == codeFollowRequested:
		me.Kind = platform.KindAlreadyDone
	case ae.Code == codeBlocked, ae.Code == codeProtected, ae.Code == codeSuspended, ae.Code == codeLocked:
		me.Kind = platform.KindPermissionDenied
	case ae.Code == codeNotFound, ae.Code == codeFollowLimit:
		me.Kind = platform.KindRejected
	case ae.StatusCode == http.StatusUnauthorized, ae.StatusCode == http.StatusForbidden:
		me.Kind = platform.KindPermissionDenied
	default:
		me.Kind = platform.KindRejected
	}
	return me
}
