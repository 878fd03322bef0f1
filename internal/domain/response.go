package domain

// ParseMode tags which parser path produced a result. The structured and
// freeform paths are independent: a freeform result never half-depends on
// a partially parsed envelope.
type ParseMode int

const (
	// ModeEmpty means neither path extracted anything usable.
	ModeEmpty ParseMode = iota
	// ModeStructured means a fenced envelope with a status field parsed.
	ModeStructured
	// ModeFreeform means the free-text fallback patterns matched.
	ModeFreeform
)

// String returns the mode name for logging.
func (m ParseMode) String() string {
	switch m {
	case ModeStructured:
		return "structured"
	case ModeFreeform:
		return "freeform"
	default:
		return "empty"
	}
}

// FileChange is one file declared by the agent, with its full content.
// Paths are relative to the project root.
type FileChange struct {
	Path    string `json:"path" yaml:"path"`
	Content string `json:"content" yaml:"content"`
}

// ParseResult is the structured form of one agent response. Only the
// fields relevant to the invoked role are populated; the core never
// inspects generated content semantically, only its syntactic envelope.
// Fields are ordered to minimize memory padding.
type ParseResult struct {
	ProjectSummary          string
	Recommendation          string
	Tasks                   []PlannedTask
	Files                   []FileChange
	Backlogs                []*Backlog
	FixedTests              []string
	RefactorTasks           []string
	RuntimeRequirements     []string
	TechnicalConsiderations []string
	Mode                    ParseMode
}

// Empty reports whether the result carries nothing actionable.
func (r *ParseResult) Empty() bool {
	return len(r.Tasks) == 0 && len(r.Files) == 0 && len(r.Backlogs) == 0 &&
		len(r.FixedTests) == 0 && len(r.RefactorTasks) == 0 &&
		r.Recommendation == "" && r.ProjectSummary == ""
}
