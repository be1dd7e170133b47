package models

import (
	"fmt"
	"time"
)

// TaskKind identifies one of the four specialized analysis tasks.
type TaskKind string

const (
	TaskSentiment TaskKind = "sentiment"
	TaskTechnical TaskKind = "technical"
	TaskRisk      TaskKind = "risk"
	TaskAnomaly   TaskKind = "anomaly"
)

// AllTaskKinds lists the four task kinds in their canonical order.
var AllTaskKinds = []TaskKind{TaskSentiment, TaskTechnical, TaskRisk, TaskAnomaly}

// FieldType describes how a schema field is parsed and validated.
type FieldType int

const (
	FieldNumber FieldType = iota
	FieldEnum
	FieldBool
	FieldText
)

// Field is one named entry in a task response schema.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	Enum     []string // allowed values for FieldEnum
	Min      float64  // numeric bounds for FieldNumber
	Max      float64
}

// Schema is the structured response contract a task's model output must
// satisfy. The inference client validates parsed output against it.
type Schema struct {
	Fields []Field
}

// FailureKind classifies a recoverable task failure.
type FailureKind string

const (
	FailureTimeout        FailureKind = "timeout"
	FailureBackendError   FailureKind = "backend_error"
	FailureSchemaMismatch FailureKind = "schema_mismatch"
)

// TaskFailure carries the kind and provider message of a failed task.
type TaskFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

func (f *TaskFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// TaskResult is the outcome of one task invocation for one request. It is a
// tagged union: Payload is populated on success, Err on failure. Created once
// and never mutated.
type TaskResult struct {
	Task     TaskKind       `json:"task"`
	Model    string         `json:"model"`
	Payload  map[string]any `json:"payload,omitempty"`
	Err      *TaskFailure   `json:"error,omitempty"`
	Duration time.Duration  `json:"-"`
}

// OK reports whether the task produced a schema-valid payload.
func (r TaskResult) OK() bool {
	return r.Err == nil
}

// TaskResults holds the four task outcomes for one request, keyed by kind.
// Invariant: exactly four entries, one per kind, regardless of failures.
type TaskResults map[TaskKind]TaskResult
