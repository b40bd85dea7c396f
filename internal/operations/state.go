package operations

import (
	"fmt"
	"sync"
	"time"

	"balag/internal/dataprocessing"
	"balag/pkg/contracts/domain"
)

// OperationStatusValue represents the overall operation status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState represents the complete state of a pipeline run. The table
// fields are written by the step producing them and read by the next ones;
// steps run sequentially so they need no locking.
type OperationState struct {
	mu sync.RWMutex

	ID        string                `json:"id"`
	Status    OperationStatusValue  `json:"status"`
	StartTime time.Time             `json:"start_time"`
	EndTime   *time.Time            `json:"end_time,omitempty"`
	Steps     map[string]*StepState `json:"steps"`
	Error     error                 `json:"-"`

	// Raw holds the parsed BalAG rows, Cleaned the rows kept by the cleaner
	Raw      []domain.RawInvoice
	Cleaned  []domain.RawInvoice
	Cleaning *dataprocessing.CleaningReport
	Invoices []domain.Invoice

	Establishments []domain.Establishment
	Companies      []domain.Company
	Scores         []domain.Score
	RawScores      []domain.RawScore
	Features       []domain.FeatureRow
	Join           dataprocessing.JoinReport

	Analysis    *dataprocessing.Analysis
	AnalysisDir string

	// Outputs lists every file written by the run
	Outputs []string
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
}

// GetStatus returns the current operation status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStep returns the state of a specific step
func (p *OperationState) GetStep(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stepID]
}

// SetStep updates the state of a specific step
func (p *OperationState) SetStep(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stepID] = state
}

// AddOutput records a file written by a step
func (p *OperationState) AddOutput(paths ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Outputs = append(p.Outputs, paths...)
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// HasFailures returns true if any step has failed
func (p *OperationState) HasFailures() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, step := range p.Steps {
		if step.GetStatus() == StepStatusFailed {
			return true
		}
	}
	return false
}

// summaryKeys are the step metadata shown by Summary, in order
var summaryKeys = []string{"rows", "kept", "removed_percent", "files"}

// Summary formats one line per step of ids with its status, duration and
// recorded counts, followed by the failure of a failed step
func (p *OperationState) Summary(ids []string) []string {
	lines := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		step := p.GetStep(id)
		if step == nil {
			continue
		}

		line := fmt.Sprintf("%-8s %-9s %10s", id, step.GetStatus(), step.Duration().Round(time.Millisecond))
		for _, key := range summaryKeys {
			v, ok := step.GetMetadata(key)
			if !ok {
				continue
			}
			if f, isFloat := v.(float64); isFloat {
				line += fmt.Sprintf(" %s=%.2f", key, f)
			} else {
				line += fmt.Sprintf(" %s=%v", key, v)
			}
		}
		lines = append(lines, line)
	}

	if p.HasFailures() {
		for _, id := range ids {
			if step := p.GetStep(id); step != nil && step.GetStatus() == StepStatusFailed {
				lines = append(lines, fmt.Sprintf("%s failed after %d attempt(s): %v", id, step.Attempts, step.Error))
			}
		}
	}
	return lines
}
