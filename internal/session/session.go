package session

import (
	"time"

	"github.com/hyerim-cho/techterview/internal/grading"
	"github.com/hyerim-cho/techterview/internal/question"
)

// State names the phases of the interview turn cycle. Selecting is both the
// initial state and the re-entrant state after a completed grading cycle that
// did not trigger a follow-up.
type State string

const (
	StateSelecting      State = "selecting"
	StateAwaitingAnswer State = "awaiting_answer"
	StateGrading        State = "grading"
)

// Turn is one completed question/answer/verdict triple.
type Turn struct {
	Question  *question.Question `json:"question"`
	Answer    string             `json:"answer"`
	Verdict   *grading.Verdict   `json:"verdict"`
	GradedAt  time.Time          `json:"graded_at"`
}

// Session is the explicit, serializable record of one interview's progress.
// It has a single writer: the turn controller mutates it while holding the
// store's per-session guard, nothing else touches it.
type Session struct {
	ID               string             `json:"session_id"`
	State            State              `json:"state"`
	AskedQuestionIDs map[string]bool    `json:"asked_question_ids"`
	CurrentQuestion  *question.Question `json:"current_question"`
	LastAnswerText   string             `json:"last_answer_text"`
	LastVerdict      *grading.Verdict   `json:"last_verdict"`
	History          []Turn             `json:"history"`
	Grounding        map[string]string  `json:"grounding,omitempty"`
	StartedAt        time.Time          `json:"started_at"`
}

// MarkAsked records the question id in the asked set. Idempotent: replaying a
// selection never duplicates and the set never shrinks.
func (s *Session) MarkAsked(id string) {
	if s.AskedQuestionIDs == nil {
		s.AskedQuestionIDs = make(map[string]bool)
	}
	s.AskedQuestionIDs[id] = true
}

// Asked reports whether the question id has been asked in this session.
func (s *Session) Asked(id string) bool {
	return s.AskedQuestionIDs[id]
}

// AppendTurn appends a completed turn to the history. History is append-only.
func (s *Session) AppendTurn(q *question.Question, answer string, v *grading.Verdict) {
	s.History = append(s.History, Turn{
		Question: q,
		Answer:   answer,
		Verdict:  v,
		GradedAt: time.Now().UTC(),
	})
}
