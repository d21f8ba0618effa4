package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/desertthunder/stasher/internal/shared"
	"google.golang.org/api/googleapi"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func apiError(code int, reason string) error {
	err := &googleapi.Error{Code: code, Message: "boom"}
	if reason != "" {
		err.Errors = []googleapi.ErrorItem{{Reason: reason, Message: "boom"}}
	}
	return err
}

func TestClassify(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"quota exceeded", apiError(http.StatusForbidden, "quotaExceeded"), KindQuota},
		{"daily limit", apiError(http.StatusForbidden, "dailyLimitExceeded"), KindQuota},
		{"quota reason without 403", apiError(http.StatusBadRequest, "quotaExceeded"), KindPermanent},
		{"quota reason on 429", apiError(http.StatusTooManyRequests, "dailyLimitExceeded"), KindTransient},
		{"rate limit reason", apiError(http.StatusForbidden, "rateLimitExceeded"), KindTransient},
		{"too many requests", apiError(http.StatusTooManyRequests, ""), KindTransient},
		{"server error", apiError(http.StatusInternalServerError, "backendError"), KindTransient},
		{"unavailable", apiError(http.StatusServiceUnavailable, ""), KindTransient},
		{"not found", apiError(http.StatusNotFound, "playlistNotFound"), KindNotFound},
		{"forbidden", apiError(http.StatusForbidden, "forbidden"), KindPermanent},
		{"bad request", apiError(http.StatusBadRequest, "invalidParameter"), KindPermanent},
		{"wrapped", fmt.Errorf("call: %w", apiError(http.StatusBadGateway, "")), KindTransient},
		{"network timeout", timeoutError{}, KindTransient},
		{"sentinel not found", fmt.Errorf("%w: x", shared.ErrEntityNotFound), KindNotFound},
		{"plain error", errors.New("malformed response"), KindPermanent},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got, _, _ := Classify(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestRemoteError(t *testing.T) {
	t.Run("matches kind sentinel and cause", func(t *testing.T) {
		cause := apiError(http.StatusForbidden, "quotaExceeded")
		err := error(&RemoteError{Op: "videos.list", Kind: KindQuota, Status: 403, Reason: "quotaExceeded", Attempts: 1, Err: cause})

		if !errors.Is(err, shared.ErrQuotaExhausted) {
			t.Error("expected ErrQuotaExhausted")
		}
		if errors.Is(err, shared.ErrTransientRemote) {
			t.Error("did not expect ErrTransientRemote")
		}

		var gerr *googleapi.Error
		if !errors.As(err, &gerr) || gerr.Code != 403 {
			t.Errorf("expected wrapped googleapi error, got %v", gerr)
		}
	})

	t.Run("message names op, status and attempts", func(t *testing.T) {
		err := &RemoteError{Op: "playlists.list", Kind: KindTransient, Status: 503, Attempts: 6, Err: errors.New("unavailable")}
		want := "playlists.list: transient remote error (status 503) after 6 attempts: unavailable"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("IsQuotaExhausted", func(t *testing.T) {
		if !IsQuotaExhausted(&RemoteError{Kind: KindQuota}) {
			t.Error("expected quota error to be detected")
		}
		if IsQuotaExhausted(&RemoteError{Kind: KindPermanent}) {
			t.Error("did not expect permanent error to be quota")
		}
		if IsQuotaExhausted(context.Canceled) {
			t.Error("did not expect context error to be quota")
		}
	})
}
