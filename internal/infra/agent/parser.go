// Package agent provides the external agent subprocess client and the
// dual-mode parser that turns agent responses into structured results.
package agent

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tsubasa-dev/gofer/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultTestCommand is assigned to free-text tasks without a
// (test: ...) annotation.
const DefaultTestCommand = "verify manually"

// Parser implements domain.ResponseParser. The structured-envelope path
// is tried first; the free-text pattern path runs only when no envelope
// parses, and never depends on a partially parsed envelope.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new Parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Ensure Parser implements domain.ResponseParser.
var _ domain.ResponseParser = (*Parser)(nil)

// Parse converts one agent response into a structured result. It never
// panics on malformed input: a FAILURE envelope surfaces as
// domain.ErrAgentFailure, anything else degrades to the free-text path
// or an empty result.
func (p *Parser) Parse(response string) (*domain.ParseResult, error) {
	if env, ok := p.findEnvelope(response); ok {
		result, err := p.parseEnvelope(env)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		p.logger.Warn("structured envelope unusable, falling back to free-text parsing")
	}
	return p.parseFreeform(response), nil
}

// envelope is one fenced candidate region with a status field.
type envelope struct {
	content string
	isYAML  bool
}

var fencePattern = regexp.MustCompile("(?ms)^```([a-zA-Z0-9_-]*)[ \t]*\r?\n(.*?)^```[ \t]*$")

// findEnvelope locates the first fenced region carrying well-formed
// key/value data with a top-level status field.
func (p *Parser) findEnvelope(response string) (envelope, bool) {
	for _, m := range fencePattern.FindAllStringSubmatch(response, -1) {
		lang, body := strings.ToLower(m[1]), m[2]
		switch lang {
		case "json", "":
			if gjson.Valid(body) && gjson.Get(body, "status").Exists() {
				return envelope{content: body}, true
			}
		case "yaml", "yml":
			var probe map[string]any
			if err := yaml.Unmarshal([]byte(body), &probe); err == nil {
				if _, ok := probe["status"]; ok {
					return envelope{content: body, isYAML: true}, true
				}
			}
		}
	}

	// A bare JSON response with a status field counts as structured too.
	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed) && gjson.Get(trimmed, "status").Exists() {
		return envelope{content: trimmed}, true
	}
	return envelope{}, false
}

// yamlEnvelope mirrors the JSON envelope fields for the YAML shape.
type yamlEnvelope struct {
	Status                  string               `yaml:"status"`
	Error                   string               `yaml:"error"`
	Reason                  string               `yaml:"reason"`
	ProjectSummary          string               `yaml:"project_summary"`
	Recommendation          string               `yaml:"recommendation"`
	Tasks                   []domain.PlannedTask `yaml:"tasks"`
	Files                   []domain.FileChange  `yaml:"files"`
	Backlogs                []*domain.Backlog    `yaml:"backlogs"`
	FixedTests              []string             `yaml:"fixed_tests"`
	RefactorTasks           []string             `yaml:"refactor_tasks"`
	RuntimeRequirements     []string             `yaml:"runtime_requirements"`
	TechnicalConsiderations []string             `yaml:"technical_considerations"`
}

// parseEnvelope parses a located envelope. A nil result with nil error
// means the envelope was unusable and the caller should fall back.
func (p *Parser) parseEnvelope(env envelope) (*domain.ParseResult, error) {
	if env.isYAML {
		return p.parseYAMLEnvelope(env.content)
	}
	return p.parseJSONEnvelope(env.content)
}

func (p *Parser) parseJSONEnvelope(body string) (*domain.ParseResult, error) {
	status := strings.ToUpper(gjson.Get(body, "status").String())
	switch status {
	case "FAILURE":
		reason := gjson.Get(body, "error").String()
		if reason == "" {
			reason = gjson.Get(body, "reason").String()
		}
		if reason == "" {
			reason = "no reason given"
		}
		return nil, fmt.Errorf("%s: %w", reason, domain.ErrAgentFailure)
	case "SUCCESS":
	default:
		return nil, nil
	}

	result := &domain.ParseResult{
		Mode:           domain.ModeStructured,
		ProjectSummary: gjson.Get(body, "project_summary").String(),
		Recommendation: gjson.Get(body, "recommendation").String(),
	}

	for _, t := range gjson.Get(body, "tasks").Array() {
		if t.IsObject() {
			result.Tasks = append(result.Tasks, domain.PlannedTask{
				Description: t.Get("description").String(),
				TestCommand: t.Get("test_command").String(),
				TaskNumber:  int(t.Get("task_number").Int()),
			})
		} else {
			result.Tasks = append(result.Tasks, domain.PlannedTask{Description: t.String()})
		}
	}
	for _, f := range gjson.Get(body, "files").Array() {
		result.Files = append(result.Files, domain.FileChange{
			Path:    f.Get("path").String(),
			Content: f.Get("content").String(),
		})
	}
	for _, b := range gjson.Get(body, "backlogs").Array() {
		backlog := &domain.Backlog{
			Title:           b.Get("title").String(),
			Description:     b.Get("description").String(),
			Priority:        b.Get("priority").String(),
			EstimatedEffort: b.Get("estimated_effort").String(),
		}
		for _, d := range b.Get("dependencies").Array() {
			backlog.Dependencies = append(backlog.Dependencies, int(d.Int()))
		}
		result.Backlogs = append(result.Backlogs, backlog)
	}
	result.FixedTests = stringArray(gjson.Get(body, "fixed_tests"))
	result.RefactorTasks = stringArray(gjson.Get(body, "refactor_tasks"))
	result.RuntimeRequirements = stringArray(gjson.Get(body, "runtime_requirements"))
	result.TechnicalConsiderations = stringArray(gjson.Get(body, "technical_considerations"))

	return result, nil
}

func (p *Parser) parseYAMLEnvelope(body string) (*domain.ParseResult, error) {
	var env yamlEnvelope
	if err := yaml.Unmarshal([]byte(body), &env); err != nil {
		return nil, nil // unusable, fall back
	}

	switch strings.ToUpper(env.Status) {
	case "FAILURE":
		reason := env.Error
		if reason == "" {
			reason = env.Reason
		}
		if reason == "" {
			reason = "no reason given"
		}
		return nil, fmt.Errorf("%s: %w", reason, domain.ErrAgentFailure)
	case "SUCCESS":
	default:
		return nil, nil
	}

	return &domain.ParseResult{
		Mode:                    domain.ModeStructured,
		ProjectSummary:          env.ProjectSummary,
		Recommendation:          env.Recommendation,
		Tasks:                   env.Tasks,
		Files:                   env.Files,
		Backlogs:                env.Backlogs,
		FixedTests:              env.FixedTests,
		RefactorTasks:           env.RefactorTasks,
		RuntimeRequirements:     env.RuntimeRequirements,
		TechnicalConsiderations: env.TechnicalConsiderations,
	}, nil
}

func stringArray(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}

// Free-text fallback patterns.
var (
	taskListHeading = regexp.MustCompile(`(?m)^\s*(?:#+\s*)?([A-Z][A-Z0-9 _-]*TASKS?[A-Z0-9 _-]*):?\s*$`)
	sectionHeading  = regexp.MustCompile(`^\s*(?:#+\s*)?[A-Z][A-Z0-9 _-]{2,}:?\s*$`)
	numberedTask    = regexp.MustCompile(`^\s*(\d+)[.)]\s+(.+?)\s*$`)
	testAnnotation  = regexp.MustCompile(`\s*\(test:\s*(.+?)\)\s*$`)

	boldPathDecl    = regexp.MustCompile(`^\s*\*\*([^*]+?)\*\*:?\s*$`)
	headingPathDecl = regexp.MustCompile(`^\s*#+\s+(\S+)\s*$`)
	barePathDecl    = regexp.MustCompile(`^\s*([\w~-][\w./~-]*)\s*:?\s*$`)
	fenceBoundary   = regexp.MustCompile("^\\s*```")
)

// parseFreeform applies the numbered-task and path-plus-fenced-block
// conventions. It always returns a result; nothing matching yields an
// empty one.
func (p *Parser) parseFreeform(response string) *domain.ParseResult {
	result := &domain.ParseResult{Mode: domain.ModeFreeform}
	lines := strings.Split(response, "\n")

	result.Tasks = extractTasks(lines)
	result.Files = extractFiles(lines)

	if result.Empty() {
		result.Mode = domain.ModeEmpty
	}
	return result
}

// extractTasks collects numbered lines following a task-list heading.
// Collection stops at the next all-caps section heading that is not
// itself a task-list heading.
func extractTasks(lines []string) []domain.PlannedTask {
	var tasks []domain.PlannedTask
	inList := false

	for _, line := range lines {
		if taskListHeading.MatchString(line) {
			inList = true
			continue
		}
		if !inList {
			continue
		}
		if sectionHeading.MatchString(line) && !taskListHeading.MatchString(line) {
			break
		}
		m := numberedTask.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		desc := m[2]
		test := DefaultTestCommand
		if tm := testAnnotation.FindStringSubmatch(desc); tm != nil {
			test = strings.TrimSpace(tm[1])
			desc = strings.TrimSpace(testAnnotation.ReplaceAllString(desc, ""))
		}
		if desc == "" {
			continue
		}
		tasks = append(tasks, domain.PlannedTask{
			Description: desc,
			TestCommand: test,
		})
	}
	return tasks
}

// extractFiles pairs path declarations with the immediately following
// fenced block. A new path declaration or a fence boundary always
// terminates the previous file's accumulation; a path with no following
// fenced content yields no file and is never merged into the next one.
func extractFiles(lines []string) []domain.FileChange {
	var files []domain.FileChange
	pendingPath := ""
	inFence := false
	var content []string

	flush := func(path string) {
		files = append(files, domain.FileChange{
			Path:    path,
			Content: strings.Join(content, "\n"),
		})
	}

	for _, line := range lines {
		if inFence {
			if fenceBoundary.MatchString(line) {
				inFence = false
				if pendingPath != "" {
					flush(pendingPath)
					pendingPath = ""
				}
				content = nil
				continue
			}
			content = append(content, line)
			continue
		}

		if fenceBoundary.MatchString(line) {
			inFence = true
			content = nil
			continue
		}

		if path, ok := pathDeclaration(line); ok {
			// Any earlier pending path without fenced content is dropped.
			pendingPath = path
		}
	}

	return files
}

// pathDeclaration reports whether a line declares the start of a file:
// a bold-marked path, a heading-marked path, or a bare path-like token.
func pathDeclaration(line string) (string, bool) {
	if m := boldPathDecl.FindStringSubmatch(line); m != nil {
		if p := strings.TrimSpace(m[1]); pathLike(p) {
			return p, true
		}
		return "", false
	}
	if m := headingPathDecl.FindStringSubmatch(line); m != nil {
		if p := strings.TrimSuffix(m[1], ":"); pathLike(p) {
			return p, true
		}
		return "", false
	}
	if m := barePathDecl.FindStringSubmatch(line); m != nil {
		if p := m[1]; pathLike(p) {
			return p, true
		}
	}
	return "", false
}

// pathLike requires a separator or extension so prose and bold emphasis
// don't register as files.
func pathLike(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	return strings.Contains(s, "/") || strings.Contains(s, ".")
}
