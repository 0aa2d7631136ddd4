package domain

import "time"

// StepResult records what one pipeline stage did.
type StepResult struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands"`
	Skipped  bool     `json:"skipped,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// ProvisionReport is the outcome of a provisioning run.
type ProvisionReport struct {
	Edition     EditionIdentity `json:"edition"`
	Environment Environment     `json:"environment"`
	DryRun      bool            `json:"dry_run"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     time.Time       `json:"ended_at"`
	Steps       []StepResult    `json:"steps"`
}

// Failed reports whether any stage recorded an error.
func (r ProvisionReport) Failed() bool {
	for _, s := range r.Steps {
		if s.Error != "" {
			return true
		}
	}
	return false
}

// CommandCount returns the number of commands issued across all stages.
func (r ProvisionReport) CommandCount() int {
	n := 0
	for _, s := range r.Steps {
		n += len(s.Commands)
	}
	return n
}
