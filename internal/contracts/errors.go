package contracts

import (
	"errors"
	"fmt"
)

// 에러 분류 (SSOT)
// SchemaError      → 배치 전체 중단 (이후 단계 신뢰 불가)
// InsufficientData → 해당 인스트루먼트만 스킵
// CollaboratorError→ 소셜/메타 컬럼 생략, 시장 데이터 파이프라인 계속

// SchemaError indicates a required input column is missing or unusable.
// Fatal for the whole batch.
type SchemaError struct {
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema error: column %q %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("schema error: required column %q missing", e.Column)
}

// NewSchemaError creates a SchemaError for a missing required column
func NewSchemaError(column string) *SchemaError {
	return &SchemaError{Column: column}
}

// InsufficientDataError indicates an instrument has too few rows.
// The instrument is skipped; the batch continues.
type InsufficientDataError struct {
	Symbol  string
	Rows    int
	Minimum int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: %d rows, need %d",
		e.Symbol, e.Rows, e.Minimum)
}

// CollaboratorError wraps a failure of an external collaborator
// (name resolution, edit history, search interest). Never fatal.
type CollaboratorError struct {
	Service string
	Err     error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s collaborator failed: %v", e.Service, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsSchemaError reports whether err is (or wraps) a SchemaError
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsInsufficientData reports whether err is (or wraps) an InsufficientDataError
func IsInsufficientData(err error) bool {
	var ie *InsufficientDataError
	return errors.As(err, &ie)
}

// IsCollaboratorError reports whether err is (or wraps) a CollaboratorError
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}
