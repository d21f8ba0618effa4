package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Remote API errors
	ErrQuotaExhausted  = fmt.Errorf("daily API quota exhausted")
	ErrTransientRemote = fmt.Errorf("transient remote error")
	ErrPermanentRemote = fmt.Errorf("remote request failed")
	ErrEntityNotFound  = fmt.Errorf("remote entity not found")

	// Local errors
	ErrStorage          = fmt.Errorf("storage failure")
	ErrSnapshotNotFound = fmt.Errorf("snapshot not found")
	ErrPlaylistNotFound = fmt.Errorf("playlist not found")
	ErrDownloadFailed   = fmt.Errorf("download failed")

	// Input validation errors
	ErrInvalidCommand  = fmt.Errorf("invalid command")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
