package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy операция по этой сессии уже выполняется
	ErrBusy = errors.New("operation already in progress")
	// ErrSuperseded результат пришёл после сброса сессии и отброшен
	ErrSuperseded = errors.New("session was reset while the operation was in flight")
)

// ValidationError некорректный ввод оператора. Состояние не меняется.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StateError операция вызвана не в том шаге.
type StateError struct {
	Op   string
	Step Step
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s is not allowed in step %s", e.Op, e.Step)
}

// SensorConsistencyError веса не согласуются между собой.
type SensorConsistencyError struct {
	Reason string
}

func (e *SensorConsistencyError) Error() string {
	return "inconsistent sensor data: " + e.Reason
}

// CollaboratorError сбой внешнего сервиса (предиктор, весы, классификатор).
type CollaboratorError struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
