package scl

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

//Sentinels matched by the typed errors below through errors.Is.
var (
	ErrConfig = errors.New("config error")
	ErrData   = errors.New("data error")
	ErrState  = errors.New("state error")
)

//ConfigError reports a training parameter outside of its documented range.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

//DataError reports mismatched shapes, lengths or element types of the input data.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return "data error: " + e.Reason
}

func (e *DataError) Is(target error) bool { return target == ErrData }

//StateError reports an evaluation request on a model that did not pass CheckModel.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return "state error: " + e.Reason
}

func (e *StateError) Is(target error) bool { return target == ErrState }

func dataErrorf(format string, args ...interface{}) error {
	return &DataError{Reason: fmt.Sprintf(format, args...)}
}

func stateErrorf(format string, args ...interface{}) error {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}

//HandleError stops the program on a non-nil error. It is meant for top level plumbing only.
func HandleError(err error) {
	if err != nil {
		Logger().Fatal("unrecoverable error", zap.Error(err))
	}
}
