package agent

import (
	"fmt"
	"strings"

	"github.com/tsubasa-dev/gofer/internal/domain"
)

// Prompts implements domain.PromptBuilder with the package's prompt
// functions.
type Prompts struct{}

var _ domain.PromptBuilder = Prompts{}

// PlanBacklogs renders the backlog-planning prompt.
func (Prompts) PlanBacklogs(projectDescription string) string {
	return PlanBacklogsPrompt(projectDescription)
}

// PlanTasks renders the task-planning prompt.
func (Prompts) PlanTasks(backlog *domain.Backlog, projectSummary string) string {
	return PlanTasksPrompt(backlog, projectSummary)
}

// BuildTask renders the task-implementation prompt.
func (Prompts) BuildTask(task *domain.Task, backlog *domain.Backlog, completed []*domain.Task) string {
	return BuildTaskPrompt(task, backlog, completed)
}

// Review renders the advisory review prompt.
func (Prompts) Review(backlog *domain.Backlog, files []string) string {
	return ReviewPrompt(backlog, files)
}

// FixTests renders the failing-test repair prompt.
func (Prompts) FixTests(testCommand, output string) string {
	return FixTestsPrompt(testCommand, output)
}

// envelopeContract is appended to every prompt so the agent knows the
// preferred structured response shape. Free text following the
// numbered-task / path-plus-fenced-block convention remains acceptable.
const envelopeContract = `Respond with a fenced json block containing at least a "status" field
("SUCCESS" or "FAILURE"). On FAILURE include an "error" field explaining
why the request is ambiguous or unserviceable.`

// PlanBacklogsPrompt asks the agent to propose the backlog set for a
// project description.
func PlanBacklogsPrompt(projectDescription string) string {
	var b strings.Builder
	b.WriteString("You are planning a software project. Break the following description\n")
	b.WriteString("into feature-sized backlogs with dependency edges between them.\n\n")
	b.WriteString("PROJECT DESCRIPTION:\n")
	b.WriteString(projectDescription)
	b.WriteString("\n\n")
	b.WriteString(`Include in the envelope: "project_summary", "runtime_requirements",
"technical_considerations", and "backlogs". Each backlog has "title",
"description", "priority", "estimated_effort" and "dependencies" (a list
of zero-based positions of earlier backlogs in your own list).` + "\n\n")
	b.WriteString(envelopeContract)
	return b.String()
}

// PlanTasksPrompt asks the agent to break one backlog into tasks.
func PlanTasksPrompt(backlog *domain.Backlog, projectSummary string) string {
	var b strings.Builder
	b.WriteString("Break the following feature into small, independently verifiable tasks,\n")
	b.WriteString("ordered so each builds on the previous ones.\n\n")
	if projectSummary != "" {
		fmt.Fprintf(&b, "PROJECT: %s\n\n", projectSummary)
	}
	fmt.Fprintf(&b, "FEATURE: %s\n%s\n\n", backlog.Title, backlog.Description)
	b.WriteString(`Each task needs a "description" and a "test_command" that verifies it.` + "\n\n")
	b.WriteString(envelopeContract)
	return b.String()
}

// BuildTaskPrompt asks the agent to implement one task.
func BuildTaskPrompt(task *domain.Task, backlog *domain.Backlog, completed []*domain.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Implement task %d of the feature %q.\n\n", task.TaskNumber, backlog.Title)
	fmt.Fprintf(&b, "TASK: %s\n", task.Description)
	if task.TestCommand != "" {
		fmt.Fprintf(&b, "VERIFIED BY: %s\n", task.TestCommand)
	}
	if len(completed) > 0 {
		b.WriteString("\nALREADY COMPLETED:\n")
		for _, t := range completed {
			fmt.Fprintf(&b, "- %s\n", t.Description)
		}
	}
	b.WriteString("\n")
	b.WriteString(`Return every file to create or overwrite in a "files" array of
{"path", "content"} objects; paths are relative to the project root and
content is the complete file.` + "\n\n")
	b.WriteString(envelopeContract)
	return b.String()
}

// ReviewPrompt asks the agent for an advisory review of already-produced
// files. The verdict is logged, never blocking.
func ReviewPrompt(backlog *domain.Backlog, files []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review the work done so far on the feature %q before it resumes.\n\n", backlog.Title)
	b.WriteString("FILES PRODUCED:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "- %s\n", f)
	}
	b.WriteString("\n")
	b.WriteString(`Reply with a "recommendation" field (continue / revisit) and optional
"refactor_tasks".` + "\n\n")
	b.WriteString(envelopeContract)
	return b.String()
}

// FixTestsPrompt asks the agent to repair a failing test run.
func FixTestsPrompt(testCommand, output string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The test command %q failed with the output below. Fix the code or\n", testCommand)
	b.WriteString("the tests so the run passes.\n\nOUTPUT:\n")
	b.WriteString(output)
	b.WriteString("\n\n")
	b.WriteString(`Return changed files in a "files" array and list repaired tests in
"fixed_tests".` + "\n\n")
	b.WriteString(envelopeContract)
	return b.String()
}
