package report

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the class of an engine failure. Every error crossing the
// engine boundary carries exactly one kind.
type Kind string

const (
	KindDecode          Kind = "DECODE_ERROR"
	KindColumnNotFound  Kind = "COLUMN_NOT_FOUND"
	KindAmbiguousColumn Kind = "AMBIGUOUS_COLUMN"
	KindColumnOrder     Kind = "COLUMN_ORDER_ERROR"
	KindEmptyDataset    Kind = "EMPTY_DATASET"
	KindInternal        Kind = "ENGINE_INTERNAL"
)

// Stage names the pipeline stage an error originated from.
type Stage string

const (
	StageDecode    Stage = "decode"
	StageResolve   Stage = "resolve_columns"
	StageValidate  Stage = "validate"
	StageClassify  Stage = "classify"
	StageAggregate Stage = "aggregate"
	StageAssemble  Stage = "assemble"
	StageSerialize Stage = "serialize"
)

// EngineError is the only error type returned by the report pipeline.
type EngineError struct {
	Kind    Kind
	Stage   Stage
	Message string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// KindOf returns the kind of an engine error, or KindInternal for anything
// else that slipped through.
func KindOf(err error) Kind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an engine error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Kind == kind
}

// NewDecodeError wraps a failure to parse the input bytes as the declared
// tabular format.
func NewDecodeError(cause error) *EngineError {
	return &EngineError{
		Kind:    KindDecode,
		Stage:   StageDecode,
		Message: "input could not be parsed as the declared format",
		Cause:   cause,
	}
}

// NewColumnNotFound reports that no header matched the logical field.
func NewColumnNotFound(field string) *EngineError {
	return &EngineError{
		Kind:    KindColumnNotFound,
		Stage:   StageResolve,
		Message: fmt.Sprintf("required column %q not found", field),
	}
}

// NewAmbiguousColumn reports that more than one header matched the logical
// field with equal rank.
func NewAmbiguousColumn(field string, candidates []string) *EngineError {
	return &EngineError{
		Kind:  KindAmbiguousColumn,
		Stage: StageResolve,
		Message: fmt.Sprintf("column %q is ambiguous, candidates: %s",
			field, strings.Join(candidates, ", ")),
	}
}

// NewColumnOrderError reports a structural precondition violation: the
// percentage column must not precede the test status column.
func NewColumnOrderError(pctColumn, statusColumn string) *EngineError {
	return &EngineError{
		Kind:  KindColumnOrder,
		Stage: StageResolve,
		Message: fmt.Sprintf("column %q must appear at or after column %q",
			pctColumn, statusColumn),
	}
}

// NewEmptyDatasetError reports a dataset with zero usable records.
func NewEmptyDatasetError() *EngineError {
	return &EngineError{
		Kind:    KindEmptyDataset,
		Stage:   StageValidate,
		Message: "dataset contains no records",
	}
}

// NewInternalError wraps an unexpected failure, tagged with the stage it
// came from.
func NewInternalError(stage Stage, cause error) *EngineError {
	return &EngineError{
		Kind:    KindInternal,
		Stage:   stage,
		Message: fmt.Sprintf("unexpected failure during %s", stage),
		Cause:   cause,
	}
}
