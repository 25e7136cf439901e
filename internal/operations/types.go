package operations

import (
	"fmt"
	"strings"
	"time"

	apperrors "excelflow/internal/errors"
	"excelflow/pkg/contracts/domain"
)

// Action selects what a run does
type Action string

const (
	ActionAll       Action = "all"
	ActionClean     Action = "clean"
	ActionTransform Action = "transform"
	ActionValidate  Action = "validate"
	ActionReport    Action = "report"
)

// Actions lists every accepted action name
var Actions = []Action{ActionAll, ActionClean, ActionTransform, ActionValidate, ActionReport}

// ParseAction converts a user supplied name to an Action
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, nil
		}
	}
	return "", apperrors.NewInputError(fmt.Sprintf("unknown action %q", s))
}

// Stage identifiers
const (
	StageLoad     = "load"
	StageClean    = "clean"
	StageValidate = "validate"
	StageSave     = "save"
	StageReport   = "report"
)

// StageStatus represents the outcome of a stage
type StageStatus string

const (
	StageStatusCompleted StageStatus = "completed"
	StageStatusFailed    StageStatus = "failed"
	StageStatusSkipped   StageStatus = "skipped"
)

// StageResult records one executed stage
type StageResult struct {
	ID        string        `json:"id"`
	Status    StageStatus   `json:"status"`
	RowsIn    int           `json:"rows_in"`
	RowsOut   int           `json:"rows_out"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Artifacts are the files written by a run. Empty fields were not written.
type Artifacts struct {
	CleanedFile string `json:"cleaned_file,omitempty"`
	CleanedCSV  string `json:"cleaned_csv,omitempty"`
	SummaryFile string `json:"summary_file,omitempty"`
	ChartFile   string `json:"chart_file,omitempty"`
}

// List returns the written artifact paths in a stable order
func (a Artifacts) List() []string {
	var out []string
	for _, p := range []string{a.CleanedFile, a.CleanedCSV, a.SummaryFile, a.ChartFile} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Result is the outcome of a run or of a single applied action
type Result struct {
	RunID     string            `json:"run_id"`
	Action    Action            `json:"action"`
	Table     *domain.Table     `json:"-"`
	Summary   *domain.Summary   `json:"summary,omitempty"`
	Histogram *domain.Histogram `json:"histogram,omitempty"`
	Artifacts Artifacts         `json:"artifacts"`
	Stages    []*StageResult    `json:"stages"`
}
