package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Media host errors
	ErrUploadFailed            = fmt.Errorf("upload failed")
	ErrDownloadFailed          = fmt.Errorf("download failed")
	ErrSyncUnavailable         = fmt.Errorf("remote listing unavailable")
	ErrRemoteDeleteUnsupported = fmt.Errorf("remote deletion requires a privileged backend")
	ErrAPIRequest              = fmt.Errorf("API request failed")
	ErrServiceUnavailable      = fmt.Errorf("service unavailable")

	// Local store errors
	ErrMediaNotFound      = fmt.Errorf("media item not found")
	ErrPersistenceCorrupt = fmt.Errorf("stored data is corrupt")
	ErrPersistence        = fmt.Errorf("failed to persist")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
