package types

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks. The struct types below match them.
var (
	ErrInput          = errors.New("invalid input")
	ErrCapture        = errors.New("capture failed")
	ErrContextMissing = errors.New("market context not initialized")
	ErrAnalysis       = errors.New("analysis failed")
	ErrNotify         = errors.New("notification failed")
	ErrPersist        = errors.New("context persist failed")
)

// InputError reports a missing or invalid instrument identifier.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInput }

// CaptureError reports a navigation, render or selector failure for one timeframe.
type CaptureError struct {
	Symbol    string
	Timeframe Timeframe
	Err       error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s %s: %v", e.Symbol, e.Timeframe, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

func (e *CaptureError) Is(target error) bool { return target == ErrCapture }

// AnalysisError reports a failed model call.
type AnalysisError struct {
	Provider string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis (%s): %v", e.Provider, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysis }

// NotifyError reports a failed delivery.
type NotifyError struct {
	Channel string
	Err     error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify (%s): %v", e.Channel, e.Err)
}

func (e *NotifyError) Unwrap() error { return e.Err }

func (e *NotifyError) Is(target error) bool { return target == ErrNotify }

// PersistError reports a context store read or write failure.
type PersistError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("context %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrPersist }
