package grading

import (
	"context"
	"errors"

	"github.com/hyerim-cho/techterview/internal/question"
)

// ErrOracleUnavailable indicates a transport or provider failure while talking
// to the grading oracle. The core never retries it; the caller may resubmit
// the turn.
var ErrOracleUnavailable = errors.New("grading oracle unavailable")

// ErrUngradable indicates that neither the original oracle output nor the
// single repair attempt yielded a schema-valid JSON verdict.
var ErrUngradable = errors.New("oracle response could not be coerced into a verdict")

// Grader produces a structured Verdict for one candidate answer. The grounding
// bundle carries auxiliary context (retrieval output and similar) and may be
// empty; it is passed to the oracle verbatim.
type Grader interface {
	Grade(ctx context.Context, q *question.Question, answerText string, grounding map[string]string) (*Verdict, error)
}
