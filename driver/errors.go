package driver

import "errors"

// Driver-level errors.
var (
	// ErrEmptyDSN indicates an empty data source name
	ErrEmptyDSN = errors.New("driver: empty data source name")

	// ErrUnsupportedPath indicates a path with an unsupported extension
	ErrUnsupportedPath = errors.New("driver: unsupported file path")

	// ErrStmtExecContextNotSupported indicates the underlying statement
	// does not support ExecContext
	ErrStmtExecContextNotSupported = errors.New("driver: statement does not support ExecContext")

	// ErrQueryerContextNotSupported indicates the underlying connection
	// does not support QueryContext
	ErrQueryerContextNotSupported = errors.New("driver: connection does not support QueryContext")

	// ErrExecerContextNotSupported indicates the underlying connection
	// does not support ExecContext
	ErrExecerContextNotSupported = errors.New("driver: connection does not support ExecContext")
)
