package runner

import (
	"time"

	"github.com/google/uuid"
)

// Ops a test step can send. They match the session API routes.
const (
	OpAdvance = "advance"
	OpRewind  = "rewind"
	OpJump    = "jump"
	// OpRestart deletes the session and starts a new one on the same script.
	OpRestart = "restart"
)

// TestSuite defines a complete playthrough
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name   string     `json:"name"`
	Script string     `json:"script,omitempty"` // Used for regular tests
	Steps  []TestStep `json:"steps,omitempty"`  // Used for regular tests
	Cases  []string   `json:"cases,omitempty"`  // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one input and its expected outcome.
// The session's first view is checked with op "" before any input is sent.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Op           string       `json:"op"`
	Index        *int         `json:"index,omitempty"` // jump target
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Transitioned *bool   `json:"transitioned,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	StepIndex    *int    `json:"step_index,omitempty"`
	Speaker      *string `json:"speaker,omitempty"` // name plate, "" for narration
	Text         *string `json:"text,omitempty"`
	Chunk        *int    `json:"chunk,omitempty"`
	Chunks       *int    `json:"chunks,omitempty"`
	Background   *string `json:"background,omitempty"` // background in effect
	Chapter      *string `json:"chapter,omitempty"`
	Index        *int    `json:"index,omitempty"` // next unread step
	Pending      *int    `json:"pending,omitempty"`
	AtEnd        *bool   `json:"at_end,omitempty"`
	HistoryLen   *int    `json:"history_len,omitempty"`

	TextContains    []string `json:"text_contains,omitempty"`
	TextNotContains []string `json:"text_not_contains,omitempty"`
	TextMaxRunes    *int     `json:"text_max_runes,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName  string
	StepName  string
	Success   bool
	Error     error
	Duration  time.Duration
	Text      string
	IsRestart bool // restart steps do not count toward pass/fail metrics
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
