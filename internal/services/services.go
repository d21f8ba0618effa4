// package services talks to everything outside the process: the YouTube Data API, the OAuth
// token store, yt-dlp and the command planner.
package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/desertthunder/stasher/internal/shared"
	"google.golang.org/api/googleapi"
)

// ErrorKind classifies a failed remote call.
type ErrorKind int

const (
	KindPermanent ErrorKind = iota
	KindTransient
	KindQuota
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindQuota:
		return "quota"
	case KindNotFound:
		return "not_found"
	default:
		return "permanent"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindTransient:
		return shared.ErrTransientRemote
	case KindQuota:
		return shared.ErrQuotaExhausted
	case KindNotFound:
		return shared.ErrEntityNotFound
	default:
		return shared.ErrPermanentRemote
	}
}

// RemoteError is returned by [Client.Execute] once a call has failed for good.
//
// It matches the shared sentinel for its kind with [errors.Is].
type RemoteError struct {
	Op       string
	Kind     ErrorKind
	Status   int
	Reason   string
	Attempts int
	Err      error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind.sentinel())
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d", e.Status)
		if e.Reason != "" {
			msg += ", " + e.Reason
		}
		msg += ")"
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Err}
}

var quotaReasons = map[string]bool{
	"quotaExceeded":      true,
	"dailyLimitExceeded": true,
}

var rateLimitReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
}

// Classify maps an API failure to an [ErrorKind] along with its status code and first reason.
// Quota exhaustion needs both a 403 and a quota reason.
func Classify(err error) (ErrorKind, int, string) {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		reason := ""
		if len(gerr.Errors) > 0 {
			reason = gerr.Errors[0].Reason
		}

		for _, item := range gerr.Errors {
			if gerr.Code == http.StatusForbidden && quotaReasons[item.Reason] {
				return KindQuota, gerr.Code, item.Reason
			}
			if rateLimitReasons[item.Reason] {
				return KindTransient, gerr.Code, item.Reason
			}
		}

		switch {
		case gerr.Code == http.StatusNotFound:
			return KindNotFound, gerr.Code, reason
		case gerr.Code == http.StatusTooManyRequests, gerr.Code >= 500:
			return KindTransient, gerr.Code, reason
		default:
			return KindPermanent, gerr.Code, reason
		}
	}

	if errors.Is(err, shared.ErrEntityNotFound) {
		return KindNotFound, 0, ""
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() && !errors.Is(err, context.DeadlineExceeded) {
		return KindTransient, 0, ""
	}
	return KindPermanent, 0, ""
}
