package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// TestFinding is one recognized failure category in test-runner output,
// with a suggested remedial command.
type TestFinding struct {
	Category   string
	Detail     string
	Suggestion string
}

// TestDiagnosis summarizes one test run's output.
// Fields are ordered to minimize memory padding.
type TestDiagnosis struct {
	Findings []TestFinding
	Passed   int
	Failed   int
}

// Summary returns a one-line description of the run.
func (d TestDiagnosis) Summary() string {
	return fmt.Sprintf("%d passed, %d failed", d.Passed, d.Failed)
}

var (
	goPassPattern  = regexp.MustCompile(`(?m)^\s*--- PASS`)
	goFailPattern  = regexp.MustCompile(`(?m)^\s*--- FAIL`)
	countPattern   = regexp.MustCompile(`(?i)(\d+)\s+(passed|passing|failed|failing)`)
	portPattern    = regexp.MustCompile(`(?i)address already in use|EADDRINUSE|port .{0,20}in use|listen tcp.*bind`)
	portNumPattern = regexp.MustCompile(`(?i)(?::|port\s+)(\d{2,5})`)
	assertPattern  = regexp.MustCompile(`(?i)assertion(?: error| failed)?|expected .{1,120} (?:got|but was|to (?:be|equal))`)
	timeoutPattern = regexp.MustCompile(`(?i)test timed out|context deadline exceeded|timeout (?:of|after) \S+ exceeded`)
)

// DiagnoseTestOutput pattern-matches test-runner output into pass/fail
// counts and recognized failure categories. It is heuristic and
// advisory; the exit status stays the only authority on success.
func DiagnoseTestOutput(output []byte) TestDiagnosis {
	var d TestDiagnosis
	text := string(output)

	d.Passed = len(goPassPattern.FindAllString(text, -1))
	d.Failed = len(goFailPattern.FindAllString(text, -1))
	for _, m := range countPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch m[2][0] {
		case 'p', 'P':
			if n > d.Passed {
				d.Passed = n
			}
		default:
			if n > d.Failed {
				d.Failed = n
			}
		}
	}

	if loc := portPattern.FindString(text); loc != "" {
		suggestion := "stop the process holding the port, then re-run"
		if m := portNumPattern.FindStringSubmatch(loc); m != nil {
			suggestion = fmt.Sprintf("run 'lsof -i :%s' and stop the conflicting process", m[1])
		}
		d.Findings = append(d.Findings, TestFinding{
			Category:   "port conflict",
			Detail:     loc,
			Suggestion: suggestion,
		})
	}
	if loc := assertPattern.FindString(text); loc != "" {
		d.Findings = append(d.Findings, TestFinding{
			Category:   "assertion failure",
			Detail:     loc,
			Suggestion: "re-run the failing test in isolation to confirm the expectation",
		})
	}
	if loc := timeoutPattern.FindString(text); loc != "" {
		d.Findings = append(d.Findings, TestFinding{
			Category:   "timeout",
			Detail:     loc,
			Suggestion: "re-run with a longer timeout or check for a hung external call",
		})
	}

	return d
}

// RunTestsInput contains the parameters for a test run.
type RunTestsInput struct {
	// Command overrides the configured [test] command when non-empty.
	Command string
}

// RunTestsOutput contains the result of a test run.
type RunTestsOutput struct {
	Output    string
	Diagnosis TestDiagnosis
	Passed    bool
}

// RunTests is the use case for running the project's test command.
type RunTests struct {
	executor     domain.CommandExecutor
	state        *ProjectState
	configLoader domain.ConfigLoader
	logger       domain.Logger
	workDir      string
}

// NewRunTests creates a new RunTests use case.
func NewRunTests(
	executor domain.CommandExecutor,
	state *ProjectState,
	configLoader domain.ConfigLoader,
	logger domain.Logger,
	workDir string,
) *RunTests {
	return &RunTests{
		executor:     executor,
		state:        state,
		configLoader: configLoader,
		logger:       logger,
		workDir:      workDir,
	}
}

// Execute runs the test command and records a tests_run event.
func (uc *RunTests) Execute(ctx context.Context, in RunTestsInput) (*RunTestsOutput, error) {
	command := in.Command
	if command == "" {
		config, err := uc.configLoader.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		command = config.Test.Command
	}
	if command == "" {
		return nil, fmt.Errorf("no test command configured")
	}

	output, runErr := uc.executor.Run(ctx, uc.workDir, command)
	diagnosis := DiagnoseTestOutput(output)

	event := domain.Event{
		Action:      domain.ActionTestsRun,
		Description: fmt.Sprintf("%s: %s", command, diagnosis.Summary()),
	}
	if runErr != nil {
		event.Error = runErr.Error()
	}
	if err := uc.state.Append(event); err != nil {
		return nil, err
	}

	out := &RunTestsOutput{
		Output:    string(output),
		Diagnosis: diagnosis,
		Passed:    runErr == nil,
	}
	if runErr != nil {
		for _, f := range diagnosis.Findings {
			uc.logger.Warn("test failure finding",
				"category", f.Category, "suggestion", f.Suggestion)
		}
		return out, fmt.Errorf("%w: %s", domain.ErrTestsFailed, diagnosis.Summary())
	}

	uc.logger.Info("tests passed", "summary", diagnosis.Summary())
	return out, nil
}
