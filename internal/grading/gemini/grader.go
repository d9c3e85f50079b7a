package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/hyerim-cho/techterview/internal/grading"
	"github.com/hyerim-cho/techterview/internal/logger"
	"github.com/hyerim-cho/techterview/internal/question"
)

//go:embed grading_prompt.md
var gradingPromptTemplate string

//go:embed repair_prompt.md
var repairPromptTemplate string

const defaultMaxLogLength = 200

// maxCoerceAttempts bounds the grade-then-repair loop: one original request
// plus exactly one repair round-trip.
const maxCoerceAttempts = 2

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Grader sends grading requests to Gemini and coerces the free-text responses
// into structured verdicts. It implements grading.Grader.
type Grader struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

// NewGrader wires a Grader around the given content generator.
func NewGrader(generator contentGenerator, maxLogLength int, log *zap.Logger) *Grader {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Grader{
		generator: generator,
		logger:    log,
		maxLogLen: maxLogLength,
	}
}

// Grade asks the oracle to score the answer and returns the coerced verdict.
// When the first response fails coercion one repair request is issued; a
// second failure surfaces as grading.ErrUngradable. Transport failures
// propagate unwrapped so callers can match grading.ErrOracleUnavailable.
func (g *Grader) Grade(ctx context.Context, q *question.Question, answerText string, grounding map[string]string) (*grading.Verdict, error) {
	if q == nil {
		return nil, fmt.Errorf("question is required")
	}
	if strings.TrimSpace(answerText) == "" {
		return nil, fmt.Errorf("answer text is required")
	}

	prompt, err := buildGradingPrompt(q, answerText, grounding)
	if err != nil {
		return nil, fmt.Errorf("build grading prompt: %w", err)
	}

	log := g.logger.With(zap.String(logger.FieldQuestionID, q.ID))

	var lastRaw string
	var lastErr error

	for attempt := 1; attempt <= maxCoerceAttempts; attempt++ {
		request := prompt
		if attempt > 1 {
			request = buildRepairPrompt(lastRaw)
		}

		log.Debug("oracle grading request",
			zap.Int("attempt", attempt),
			zap.Int("prompt_length", utf8.RuneCountInString(request)),
			zap.String("prompt_preview", logger.TruncateForLog(request, g.maxLogLen)),
		)

		raw, err := g.generator.GenerateContent(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("grade question %s: %w", q.ID, err)
		}

		log.Debug("oracle grading response",
			zap.Int("attempt", attempt),
			zap.Int("response_length", utf8.RuneCountInString(raw)),
			zap.String("response_preview", logger.TruncateForLog(raw, g.maxLogLen)),
		)

		verdict, cerr := grading.Coerce(raw, q)
		if cerr == nil {
			return verdict, nil
		}

		log.Warn("oracle response failed coercion",
			zap.Int("attempt", attempt),
			zap.Error(cerr),
		)

		lastRaw = raw
		lastErr = cerr
	}

	return nil, fmt.Errorf("grade question %s: %w: %v", q.ID, grading.ErrUngradable, lastErr)
}

func buildGradingPrompt(q *question.Question, answerText string, grounding map[string]string) (string, error) {
	questionJSON, err := json.Marshal(q)
	if err != nil {
		return "", fmt.Errorf("marshal question payload: %w", err)
	}

	if grounding == nil {
		grounding = map[string]string{}
	}
	contextJSON, err := json.Marshal(grounding)
	if err != nil {
		return "", fmt.Errorf("marshal grounding payload: %w", err)
	}

	prompt := strings.ReplaceAll(gradingPromptTemplate, "{{QUESTION_JSON}}", string(questionJSON))
	prompt = strings.ReplaceAll(prompt, "{{CONTEXT_JSON}}", string(contextJSON))
	prompt = strings.ReplaceAll(prompt, "{{ANSWER_TEXT}}", answerText)
	return prompt, nil
}

func buildRepairPrompt(previous string) string {
	return strings.ReplaceAll(repairPromptTemplate, "{{PREVIOUS_OUTPUT}}", previous)
}
