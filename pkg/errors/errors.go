// Package errors provides custom error types for the fedtrack system.
// Structural failures (schema mismatch, window overlap, bad configuration)
// abort a run; data-quality conditions are recorded as warnings instead.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is and As are aliases for the standard library functions.
var (
	Is = errors.Is
	As = errors.As
)

// Common sentinel errors for the fedtrack system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchemaMismatch indicates that a source file lacks a required column
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrOverlapConflict indicates that two generations claim the same cell
	ErrOverlapConflict = errors.New("overlap conflict")

	// ErrUnresolved indicates that a sub-entity id is missing from the crosswalk
	ErrUnresolved = errors.New("unresolved entity")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error, including gaps between
// generation windows.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// SchemaMismatchError is returned when a source header lacks a column the
// adapter's layout requires. It is raised before any row is emitted.
type SchemaMismatchError struct {
	Source string
	Field  string
	Header []string
}

// Error implements the error interface
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch in %s: required field %q not in header [%s]",
		e.Source, e.Field, strings.Join(e.Header, ", "))
}

// Is implements errors.Is support
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// NewSchemaMismatchError creates a new SchemaMismatchError
func NewSchemaMismatchError(source, field string, header []string) *SchemaMismatchError {
	return &SchemaMismatchError{Source: source, Field: field, Header: header}
}

// OverlapConflictError reports two generations claiming the same
// (event type, entity, month) cell, or two declared windows that overlap.
type OverlapConflictError struct {
	EventType   string
	Entity      string
	Month       int
	Generations []string
}

// Error implements the error interface
func (e *OverlapConflictError) Error() string {
	if e.Entity == "" && e.Month == 0 {
		return fmt.Sprintf("overlap conflict for %s: windows of %v overlap", e.EventType, e.Generations)
	}
	return fmt.Sprintf("overlap conflict for %s entity %s month %d: claimed by %v",
		e.EventType, e.Entity, e.Month, e.Generations)
}

// Is implements errors.Is support
func (e *OverlapConflictError) Is(target error) bool {
	return target == ErrOverlapConflict
}

// NewOverlapConflictError creates a new OverlapConflictError
func NewOverlapConflictError(eventType, entity string, month int, generations ...string) *OverlapConflictError {
	return &OverlapConflictError{
		EventType:   eventType,
		Entity:      entity,
		Month:       month,
		Generations: generations,
	}
}

// UnresolvedEntityWarning records a sub-entity id that the crosswalk could
// not map. It never aborts a run.
type UnresolvedEntityWarning struct {
	SubEntity string `json:"subEntity"`
	Events    int64  `json:"events"`
}

// Error implements the error interface
func (e *UnresolvedEntityWarning) Error() string {
	return fmt.Sprintf("sub-entity %s not in crosswalk (%d events excluded from entity tables)", e.SubEntity, e.Events)
}

// Is implements errors.Is support
func (e *UnresolvedEntityWarning) Is(target error) bool {
	return target == ErrUnresolved
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "csv", "jsonl", "yaml", "json"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "open", "remove"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSchemaMismatch checks if an error is a schema mismatch
func IsSchemaMismatch(err error) bool {
	return errors.Is(err, ErrSchemaMismatch)
}

// IsOverlapConflict checks if an error is an overlap conflict
func IsOverlapConflict(err error) bool {
	return errors.Is(err, ErrOverlapConflict)
}

// IsStructural reports whether err must abort the whole run.
func IsStructural(err error) bool {
	var cfg *ConfigError
	return IsSchemaMismatch(err) || IsOverlapConflict(err) || errors.As(err, &cfg)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
