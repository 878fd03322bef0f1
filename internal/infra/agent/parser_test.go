package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsubasa-dev/gofer/internal/domain"
)

func TestParser_StructuredFiles(t *testing.T) {
	content := "line one\nline two\t\"quoted\"\n"
	response := "Here is the implementation.\n\n" +
		"```json\n" +
		`{
  "status": "SUCCESS",
  "files": [
    {"path": "src/app.js", "content": "line one\nline two\t\"quoted\"\n"},
    {"path": "src/util.js", "content": "exports.id = x => x;"}
  ]
}` + "\n```\n"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeStructured, result.Mode)
	require.Len(t, result.Files, 2)
	assert.Equal(t, "src/app.js", result.Files[0].Path)
	assert.Equal(t, content, result.Files[0].Content, "content must be byte-identical")
	assert.Equal(t, "exports.id = x => x;", result.Files[1].Content)
}

func TestParser_StructuredTasks(t *testing.T) {
	response := "```json\n" +
		`{"status":"SUCCESS","tasks":[
			{"description":"set up routing","test_command":"npm test routing"},
			{"description":"add models"}
		]}` + "\n```"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, "set up routing", result.Tasks[0].Description)
	assert.Equal(t, "npm test routing", result.Tasks[0].TestCommand)
	assert.Empty(t, result.Tasks[1].TestCommand)
}

func TestParser_StructuredBacklogsAndExtras(t *testing.T) {
	response := "```json\n" + `{
		"status": "SUCCESS",
		"project_summary": "a todo app",
		"runtime_requirements": ["node >= 20"],
		"backlogs": [
			{"title": "auth", "description": "login", "priority": "high",
			 "estimated_effort": "2d", "dependencies": [0]}
		],
		"recommendation": "continue",
		"fixed_tests": ["login spec"]
	}` + "\n```"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Equal(t, "a todo app", result.ProjectSummary)
	assert.Equal(t, []string{"node >= 20"}, result.RuntimeRequirements)
	require.Len(t, result.Backlogs, 1)
	assert.Equal(t, "auth", result.Backlogs[0].Title)
	assert.Equal(t, []int{0}, result.Backlogs[0].Dependencies)
	assert.Equal(t, "continue", result.Recommendation)
	assert.Equal(t, []string{"login spec"}, result.FixedTests)
}

func TestParser_FailureEnvelope(t *testing.T) {
	response := "```json\n" +
		`{"status": "FAILURE", "error": "the request is ambiguous"}` +
		"\n```"

	_, err := NewParser(nil).Parse(response)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAgentFailure)
	assert.Contains(t, err.Error(), "the request is ambiguous")
}

func TestParser_YAMLEnvelope(t *testing.T) {
	response := "```yaml\n" + `status: SUCCESS
tasks:
  - description: wire the API client
    test_command: go test ./client
` + "```"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeStructured, result.Mode)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "wire the API client", result.Tasks[0].Description)
}

func TestParser_BareJSONResponse(t *testing.T) {
	response := `{"status":"SUCCESS","files":[{"path":"a.txt","content":"hi"}]}`

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeStructured, result.Mode)
	require.Len(t, result.Files, 1)
}

func TestParser_FreeformTasks(t *testing.T) {
	// The parenthetical test annotation is optional and defaults to
	// "verify manually".
	response := `Some preamble.

TASKS:
1. Do X (test: cmd1)
2. Do Y

NOTES:
1. This numbered line is outside the task list.
`

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeFreeform, result.Mode)
	require.Len(t, result.Tasks, 2)
	assert.Equal(t, domain.PlannedTask{Description: "Do X", TestCommand: "cmd1"}, result.Tasks[0])
	assert.Equal(t, domain.PlannedTask{Description: "Do Y", TestCommand: "verify manually"}, result.Tasks[1])
}

func TestParser_FreeformTasksStopAtSectionHeading(t *testing.T) {
	response := `IMPLEMENTATION TASKS:
1. First task
REMAINING TASKS:
2. Second task
OPEN QUESTIONS:
3. Not a task
`

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	require.Len(t, result.Tasks, 2, "task-list headings continue the list, other headings end it")
	assert.Equal(t, "Second task", result.Tasks[1].Description)
}

func TestParser_FreeformFiles(t *testing.T) {
	response := "**src/index.js**\n" +
		"```js\nconsole.log('hi');\n```\n" +
		"## src/style.css\n" +
		"```css\nbody { margin: 0; }\n```\n" +
		"package.json\n" +
		"```json\n{\"name\": \"demo\"}\n```\n"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeFreeform, result.Mode)
	require.Len(t, result.Files, 3)
	assert.Equal(t, "src/index.js", result.Files[0].Path)
	assert.Equal(t, "console.log('hi');", result.Files[0].Content)
	assert.Equal(t, "src/style.css", result.Files[1].Path)
	assert.Equal(t, "body { margin: 0; }", result.Files[1].Content)
	assert.Equal(t, "package.json", result.Files[2].Path)
}

func TestParser_FreeformPathWithoutFenceDropped(t *testing.T) {
	// A path declaration with no following fenced content yields no
	// file and is never merged into the next file.
	response := "**src/orphan.js**\n" +
		"**src/real.js**\n" +
		"```\ncontent here\n```\n"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "src/real.js", result.Files[0].Path)
	assert.Equal(t, "content here", result.Files[0].Content)
}

func TestParser_FreeformFenceWithoutPathIgnored(t *testing.T) {
	response := "```sh\necho example, not a file\n```\n"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Empty(t, result.Files)
	assert.Equal(t, domain.ModeEmpty, result.Mode)
}

func TestParser_ProseNotMistakenForPaths(t *testing.T) {
	response := "**Important note** about the plan.\n" +
		"This is prose with i.e. dots but spaces.\n"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestParser_MalformedInputNeverErrors(t *testing.T) {
	inputs := []string{
		"",
		"```json\n{not valid json",
		"```json\n{\"status\": \"WAT\"}\n```",
		"1. orphan numbered line with no heading",
		"``` ``` ``` ```",
		"\x00\xff binary garbage \x01",
	}
	for _, in := range inputs {
		result, err := NewParser(nil).Parse(in)
		require.NoError(t, err, "input %q", in)
		require.NotNil(t, result)
		assert.Equal(t, domain.ModeEmpty, result.Mode, "input %q", in)
	}
}

func TestParser_EnvelopePreferredOverFreeform(t *testing.T) {
	// When a valid envelope exists, free-text patterns in the same
	// response must not contribute.
	response := `TASKS:
1. Freeform task (test: nope)

` + "```json\n" + `{"status":"SUCCESS","tasks":[{"description":"structured task"}]}` + "\n```"

	result, err := NewParser(nil).Parse(response)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeStructured, result.Mode)
	require.Len(t, result.Tasks, 1)
	assert.Equal(t, "structured task", result.Tasks[0].Description)
}
