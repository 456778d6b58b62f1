package common

import (
	"fmt"
)

// InvalidSettingError reports an unknown setting name, a value that cannot be clamped into range,
// or a semantically inconsistent change. The previous valid state is retained.
type InvalidSettingError struct {
	Name    string
	Message string
}

func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid setting %q: %s", e.Name, e.Message)
}

// BufferTooLargeError reports an allocation that exceeds the device's storage buffer limit.
type BufferTooLargeError struct {
	Requested    uint64
	MaxAvailable uint64
}

func (e *BufferTooLargeError) Error() string {
	return fmt.Sprintf("buffer too large: requested %d bytes, max available %d bytes", e.Requested, e.MaxAvailable)
}

// InitializationFailedError reports pipeline compilation failures, missing LUTs at bootstrap,
// or an absent device feature.
type InitializationFailedError struct {
	Msg string
	Err error
}

func (e *InitializationFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("initialization failed: %s: %v", e.Msg, e.Err)
	}
	return "initialization failed: " + e.Msg
}

func (e *InitializationFailedError) Unwrap() error {
	return e.Err
}

// GpuError reports surface acquisition or queue submission failures.
type GpuError struct {
	Msg string
	Err error
}

func (e *GpuError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gpu error: %s: %v", e.Msg, e.Err)
	}
	return "gpu error: " + e.Msg
}

func (e *GpuError) Unwrap() error {
	return e.Err
}

// IoError is reserved for host-side preset and palette file handling.
type IoError struct {
	Msg string
	Err error
}

func (e *IoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("io error: %s: %v", e.Msg, e.Err)
	}
	return "io error: " + e.Msg
}

func (e *IoError) Unwrap() error {
	return e.Err
}

// InvalidSetting builds an InvalidSettingError with a formatted message.
//
// Parameters:
//   - name: the setting or state name that was rejected
//   - format: printf-style message format
//   - args: format arguments
//
// Returns:
//   - error: the *InvalidSettingError
func InvalidSetting(name, format string, args ...any) error {
	return &InvalidSettingError{Name: name, Message: fmt.Sprintf(format, args...)}
}

// InitializationFailed wraps err as an InitializationFailedError.
func InitializationFailed(msg string, err error) error {
	return &InitializationFailedError{Msg: msg, Err: err}
}

// GPU wraps err as a GpuError.
func GPU(msg string, err error) error {
	return &GpuError{Msg: msg, Err: err}
}

// IO wraps err as an IoError.
func IO(msg string, err error) error {
	return &IoError{Msg: msg, Err: err}
}
