package grading

import (
	"strings"

	"github.com/hyerim-cho/techterview/internal/question"
)

const (
	maxEvidenceEntries = 3
	maxListEntries     = 5
)

// RubricHits is the per-criterion breakdown of a verdict, each on a 0-5 scale.
type RubricHits struct {
	Clarity     int `json:"clarity"`
	Correctness int `json:"correctness"`
	Depth       int `json:"depth"`
	Structure   int `json:"structure"`
}

// Evidence ties a claim made in the feedback to the source material that
// supports it.
type Evidence struct {
	Claim   string `json:"claim"`
	Support string `json:"support"`
}

// EchoedMetadata is the grading-relevant question metadata the oracle echoes
// back in its verdict.
type EchoedMetadata struct {
	Difficulty      string   `json:"difficulty"`
	Topic           string   `json:"topic"`
	Subcategory     string   `json:"subcategory"`
	DifficultyScore *float64 `json:"difficulty_score"`
	Tags            []string `json:"tags"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
}

// Verdict is the structured grading result for one answer. Score is a pointer
// because a verdict that parsed as JSON may still lack a usable score; the
// turn controller treats a nil score as a safe default that routes to a
// follow-up instead of certifying a pass.
type Verdict struct {
	QuestionID       string         `json:"question_id"`
	Score            *int           `json:"score,omitempty"`
	PassThreshold    int            `json:"pass_threshold"`
	Passed           bool           `json:"passed"`
	Feedback         string         `json:"feedback"`
	Strengths        []string       `json:"strengths"`
	Weaknesses       []string       `json:"weaknesses"`
	MissingPoints    []string       `json:"missing_points"`
	FollowUpNeeded   bool           `json:"follow_up_needed"`
	FollowUpQuestion string         `json:"follow_up_question"`
	RubricHits       RubricHits     `json:"rubric_hits"`
	MetadataUsed     EchoedMetadata `json:"metadata_used"`
	Evidence         []Evidence     `json:"evidence"`

	// Raw preserves the oracle output the verdict was coerced from.
	Raw string `json:"-"`
}

// PassThresholdFor derives the pass threshold from a question's difficulty
// score. The oracle is instructed to compute the same value; it is re-derived
// here so the stored verdict never depends on the oracle getting it right.
func PassThresholdFor(difficultyScore *float64) int {
	switch {
	case difficultyScore == nil:
		return 70
	case *difficultyScore >= 0.8:
		return 75
	case *difficultyScore >= 0.5:
		return 70
	default:
		return 65
	}
}

// normalize enforces the verdict contract against the graded question:
// threshold derivation, passed consistency, list caps, the follow-up
// iff-invariant, and metadata echo defaults.
func (v *Verdict) normalize(q *question.Question) {
	v.QuestionID = q.ID

	v.PassThreshold = PassThresholdFor(q.DifficultyScore)
	v.Passed = v.Score != nil && *v.Score >= v.PassThreshold

	v.Strengths = capList(v.Strengths, maxListEntries)
	v.Weaknesses = capList(v.Weaknesses, maxListEntries)
	v.MissingPoints = capList(v.MissingPoints, maxListEntries)
	if len(v.Evidence) > maxEvidenceEntries {
		v.Evidence = v.Evidence[:maxEvidenceEntries]
	}

	v.FollowUpQuestion = strings.TrimSpace(v.FollowUpQuestion)
	v.FollowUpNeeded = v.FollowUpQuestion != ""

	meta := &v.MetadataUsed
	if meta.Difficulty == "" {
		meta.Difficulty = q.Difficulty
	}
	if meta.Topic == "" {
		meta.Topic = q.Topic
	}
	if meta.Subcategory == "" {
		meta.Subcategory = q.Subcategory
	}
	if meta.DifficultyScore == nil {
		meta.DifficultyScore = q.DifficultyScore
	}
	if len(meta.Tags) == 0 {
		meta.Tags = q.Tags
	}
	if meta.TimeComplexity == "" {
		meta.TimeComplexity = q.TimeComplexity
	}
	if meta.SpaceComplexity == "" {
		meta.SpaceComplexity = q.SpaceComplexity
	}
}

func capList(items []string, limit int) []string {
	trimmed := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	if len(trimmed) > limit {
		trimmed = trimmed[:limit]
	}
	return trimmed
}
