package operations

import (
	"context"
	"sync"
	"time"
)

// Step represents a single step of the pipeline
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Validate checks the step can run with the current state
	Validate(state *OperationState) error

	// Execute runs the step, reading its inputs from state and storing its
	// outputs back into it
	Execute(ctx context.Context, state *OperationState) error
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusActive    StepStatus = "active"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepState represents the runtime state of a step
type StepState struct {
	mu        sync.RWMutex
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Status    StepStatus     `json:"status"`
	StartTime *time.Time     `json:"start_time,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Attempts  int            `json:"attempts"`
	Message   string         `json:"message"`
	Error     error          `json:"-"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewStepState creates a new step state with default values
func NewStepState(id, name string) *StepState {
	return &StepState{
		ID:       id,
		Name:     name,
		Status:   StepStatusPending,
		Metadata: make(map[string]any),
	}
}

// Start marks the step as active and sets the start time
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.StartTime = &now
	s.EndTime = nil
	s.Status = StepStatusActive
	s.Attempts++
}

// Complete marks the step as completed and sets the end time
func (s *StepState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusCompleted
	s.Error = nil
}

// Fail marks the step as failed with the given error
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusFailed
	s.Error = err
}

// Skip marks the step as skipped with the given reason
func (s *StepState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.EndTime = &now
	s.Status = StepStatusSkipped
	s.Message = reason
}

// GetStatus returns the current status
func (s *StepState) GetStatus() StepStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// SetMetadata records a value describing the step outcome
func (s *StepState) SetMetadata(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata[key] = value
}

// GetMetadata returns a value recorded with SetMetadata
func (s *StepState) GetMetadata(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Metadata[key]
	return v, ok
}

// Duration returns the duration of the step execution
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// BaseStep provides the identity of a step and a validation that always
// passes
type BaseStep struct {
	id   string
	name string
}

// NewBaseStep creates a new base step
func NewBaseStep(id, name string) BaseStep {
	return BaseStep{id: id, name: name}
}

// ID returns the step ID
func (b BaseStep) ID() string { return b.id }

// Name returns the step name
func (b BaseStep) Name() string { return b.name }

// Validate accepts any state
func (b BaseStep) Validate(*OperationState) error { return nil }
