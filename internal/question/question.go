package question

import "strings"

// DifficultyFollowUp is the difficulty label assigned to synthesized
// follow-up questions. They are not part of the bank and carry no
// difficulty score.
const DifficultyFollowUp = "follow_up"

// Question is a single interview question loaded from the bank dataset.
// Records are immutable after load.
type Question struct {
	ID              string   `json:"id"`
	Prompt          string   `json:"question"`
	ReferenceAnswer string   `json:"answer"`
	Difficulty      string   `json:"difficulty"`
	Topic           string   `json:"topic"`
	Subcategory     string   `json:"subcategory"`
	DifficultyScore *float64 `json:"difficulty_score"`
	Tags            []string `json:"tags"`
	CodeExample     string   `json:"code_example"`
	TimeComplexity  string   `json:"time_complexity"`
	SpaceComplexity string   `json:"space_complexity"`
}

// IsFollowUp reports whether the question was synthesized from a verdict
// rather than loaded from the bank.
func (q *Question) IsFollowUp() bool {
	return q != nil && strings.HasPrefix(q.ID, "followup:")
}

// SplitTags parses the comma-separated tags column into a list,
// dropping empty entries.
func SplitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
