package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/novel-engine/internal/services/sessions"
	"github.com/jwebster45206/novel-engine/pkg/paginate"
	"github.com/jwebster45206/novel-engine/pkg/playback"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays test suites against a running novel-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	ScriptOverride    string // If set, overrides the script for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 30 * time.Second},
		Timeout:           10 * time.Second,
		Logger:            func(string, ...interface{}) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	scriptFile := suite.Script
	if r.ScriptOverride != "" {
		scriptFile = r.ScriptOverride
	}

	sum, err := r.createSession(ctx, scriptFile)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = sum.ID
	defer func() {
		if err := r.deleteSession(context.Background(), result.Session); err != nil {
			r.Logger("    failed to clean up session %s: %v", result.Session, err)
		}
	}()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, &result.Session, scriptFile, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep sends one input and checks its expectations. A restart replaces
// the session id in place.
func (r *Runner) runStep(ctx context.Context, id *uuid.UUID, scriptFile string, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	var out sessions.Outcome
	switch step.Op {
	case "":
		sum, err := r.getSession(ctx, *id)
		if err != nil {
			result.Error = err
			break
		}
		out = outcomeOf(sum)

	case OpRestart:
		result.IsRestart = true
		if err := r.deleteSession(ctx, *id); err != nil {
			result.Error = fmt.Errorf("failed to delete session: %w", err)
			break
		}
		sum, err := r.createSession(ctx, scriptFile)
		if err != nil {
			result.Error = fmt.Errorf("failed to recreate session: %w", err)
			break
		}
		*id = sum.ID
		out = outcomeOf(sum)

	case OpAdvance, OpRewind:
		if err := r.doJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/sessions/%s/%s", *id, step.Op), nil, http.StatusOK, &out); err != nil {
			result.Error = err
		}

	case OpJump:
		if step.Index == nil {
			result.Error = fmt.Errorf("jump step needs an index")
			break
		}
		body := map[string]int{"index": *step.Index}
		if err := r.doJSON(ctx, http.MethodPost, fmt.Sprintf("/v1/sessions/%s/jump", *id), body, http.StatusOK, &out); err != nil {
			result.Error = err
		}

	default:
		result.Error = fmt.Errorf("unknown op %q", step.Op)
	}

	if result.Error == nil {
		if out.View != nil {
			result.Text = out.View.Text
		}
		historyLen := -1
		if step.Expectations.HistoryLen != nil {
			var history []playback.HistoryEntry
			if err := r.doJSON(ctx, http.MethodGet, fmt.Sprintf("/v1/sessions/%s/history", *id), nil, http.StatusOK, &history); err != nil {
				result.Error = err
			}
			historyLen = len(history)
		}
		if result.Error == nil {
			result.Error = checkExpectations(step.Expectations, out, historyLen)
		}
	}

	result.Success = result.Error == nil
	result.Duration = time.Since(start)
	return result
}

// outcomeOf reads a session summary as the outcome of its last input.
func outcomeOf(sum *sessions.Summary) sessions.Outcome {
	return sessions.Outcome{
		Transitioned: sum.View != nil,
		View:         sum.View,
		Frame:        sum.Frame,
		Index:        sum.Index,
		AtEnd:        sum.AtEnd,
	}
}

func (r *Runner) createSession(ctx context.Context, scriptFile string) (*sessions.Summary, error) {
	var sum sessions.Summary
	body := map[string]string{"script": scriptFile}
	if err := r.doJSON(ctx, http.MethodPost, "/v1/sessions", body, http.StatusCreated, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (r *Runner) getSession(ctx context.Context, id uuid.UUID) (*sessions.Summary, error) {
	var sum sessions.Summary
	if err := r.doJSON(ctx, http.MethodGet, "/v1/sessions/"+id.String(), nil, http.StatusOK, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (r *Runner) deleteSession(ctx context.Context, id uuid.UUID) error {
	return r.doJSON(ctx, http.MethodDelete, "/v1/sessions/"+id.String(), nil, http.StatusNoContent, nil)
}

// doJSON sends a request and decodes the response into out when it is not nil.
func (r *Runner) doJSON(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != wantStatus {
		return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// checkExpectations compares an outcome to what the step expects. A
// historyLen below zero means the history was not fetched.
func checkExpectations(exp Expectations, out sessions.Outcome, historyLen int) error {
	var failures []string
	fail := func(format string, args ...interface{}) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if exp.Transitioned != nil && out.Transitioned != *exp.Transitioned {
		fail("transitioned = %v, want %v", out.Transitioned, *exp.Transitioned)
	}
	if exp.Reason != "" && string(out.Reason) != exp.Reason {
		fail("reason = %q, want %q", out.Reason, exp.Reason)
	}
	if exp.Index != nil && out.Index != *exp.Index {
		fail("index = %d, want %d", out.Index, *exp.Index)
	}
	if exp.Pending != nil && out.Pending != *exp.Pending {
		fail("pending = %d, want %d", out.Pending, *exp.Pending)
	}
	if exp.AtEnd != nil && out.AtEnd != *exp.AtEnd {
		fail("at_end = %v, want %v", out.AtEnd, *exp.AtEnd)
	}
	if exp.HistoryLen != nil && historyLen != *exp.HistoryLen {
		fail("history length = %d, want %d", historyLen, *exp.HistoryLen)
	}

	needsView := exp.StepIndex != nil || exp.Speaker != nil || exp.Text != nil ||
		exp.Chunk != nil || exp.Chunks != nil || exp.Background != nil || exp.Chapter != nil ||
		len(exp.TextContains) > 0 || len(exp.TextNotContains) > 0 || exp.TextMaxRunes != nil
	if needsView && out.View == nil {
		fail("no view in response")
	}

	if v := out.View; v != nil {
		if exp.StepIndex != nil && v.StepIndex != *exp.StepIndex {
			fail("step_index = %d, want %d", v.StepIndex, *exp.StepIndex)
		}
		if exp.Speaker != nil && v.SpeakerName != *exp.Speaker {
			fail("speaker = %q, want %q", v.SpeakerName, *exp.Speaker)
		}
		if exp.Text != nil && v.Text != *exp.Text {
			fail("text = %q, want %q", v.Text, *exp.Text)
		}
		if exp.Chunk != nil && v.Chunk != *exp.Chunk {
			fail("chunk = %d, want %d", v.Chunk, *exp.Chunk)
		}
		if exp.Chunks != nil && v.Chunks != *exp.Chunks {
			fail("chunks = %d, want %d", v.Chunks, *exp.Chunks)
		}
		if exp.Background != nil && v.Background != *exp.Background {
			fail("background = %q, want %q", v.Background, *exp.Background)
		}
		if exp.Chapter != nil && v.Chapter != *exp.Chapter {
			fail("chapter = %q, want %q", v.Chapter, *exp.Chapter)
		}
		for _, s := range exp.TextContains {
			if !strings.Contains(v.Text, s) {
				fail("text %q does not contain %q", v.Text, s)
			}
		}
		for _, s := range exp.TextNotContains {
			if strings.Contains(v.Text, s) {
				fail("text %q contains %q", v.Text, s)
			}
		}
		if exp.TextMaxRunes != nil {
			if n := paginate.RuneLen(v.Text); n > *exp.TextMaxRunes {
				fail("text has %d runes, want at most %d", n, *exp.TextMaxRunes)
			}
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("expectations not met:\n  - %s", strings.Join(failures, "\n  - "))
	}
	return nil
}
