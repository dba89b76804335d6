package apperrors

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrTabNotFound      = errors.New("tab not found")
	ErrInvalidAlertTime = errors.New("invalid alert time")
	ErrDaemonNotRunning = errors.New("daemon is not running")
)
