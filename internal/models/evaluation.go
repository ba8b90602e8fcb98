package models

// ReadabilityLevel tags how demanding a chapter is to read
type ReadabilityLevel string

const (
	ReadabilityLevelEasy   ReadabilityLevel = "easy"
	ReadabilityLevelNormal ReadabilityLevel = "normal"
	ReadabilityLevelHard   ReadabilityLevel = "hard"
)

// ParseReadabilityLevel maps a string to a known level, defaulting to normal
func ParseReadabilityLevel(s string) ReadabilityLevel {
	switch ReadabilityLevel(s) {
	case ReadabilityLevelEasy, ReadabilityLevelNormal, ReadabilityLevelHard:
		return ReadabilityLevel(s)
	default:
		return ReadabilityLevelNormal
	}
}

// VaguePoint is a spot the depth checker flagged as underspecified
type VaguePoint struct {
	Location   string `json:"location"`
	Issue      string `json:"issue"`
	Question   string `json:"question"` // Clarifying question the text should answer
	Suggestion string `json:"suggestion"`
}

// ContentIssue is a single defect reported by an evaluator
type ContentIssue struct {
	IssueType   string `json:"issue_type"`
	Severity    string `json:"severity"` // high, medium, low
	Location    string `json:"location"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
	Reference   string `json:"reference,omitempty"`
}

// DepthResult is the depth checker's assessment
type DepthResult struct {
	Score            int          `json:"score"` // [0,100]
	IsDetailedEnough bool         `json:"is_detailed_enough"`
	VaguePoints      []VaguePoint `json:"vague_points"`
	Summary          string       `json:"summary"`
}

// QualityResult is the quality reviewer's assessment
type QualityResult struct {
	Score             int            `json:"score"` // [0,100]
	Approved          bool           `json:"approved"`
	Issues            []ContentIssue `json:"issues"`
	Summary           string         `json:"summary"`
	LogicScore        int            `json:"logic_score"`
	AccuracyScore     int            `json:"accuracy_score"`
	CompletenessScore int            `json:"completeness_score"`
}

// ReadabilityResult is the readability checker's assessment
type ReadabilityResult struct {
	Score           int              `json:"score"` // [0,100]
	Level           ReadabilityLevel `json:"level"`
	Issues          []ContentIssue   `json:"issues"`
	Summary         string           `json:"summary"`
	VocabularyScore int              `json:"vocabulary_score"`
	SyntaxScore     int              `json:"syntax_score"`
	DiscourseScore  int              `json:"discourse_score"`
	SurfaceScore    int              `json:"surface_score"`
}

// ActionableFeedback is a prioritized concrete next action.
// Priority 1 is most urgent; lists are always sorted ascending by priority.
type ActionableFeedback struct {
	Priority        int    `json:"priority"`
	Location        string `json:"location"`
	IssueType       string `json:"issue_type"`
	Problem         string `json:"problem"`
	Action          string `json:"action"`
	Reference       string `json:"reference,omitempty"`
	EstimatedEffort string `json:"estimated_effort"` // low, medium, high
}

// DimensionScores is the per-dimension breakdown behind an overall score
type DimensionScores struct {
	Depth        int `json:"depth"`
	Accuracy     int `json:"accuracy"`
	Completeness int `json:"completeness"`
	Logic        int `json:"logic"`
	Readability  int `json:"readability"`
}
