package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyerim-cho/techterview/internal/grading"
	"github.com/hyerim-cho/techterview/internal/logger"
	"github.com/hyerim-cho/techterview/internal/question"
	"github.com/hyerim-cho/techterview/internal/session"
	"github.com/hyerim-cho/techterview/internal/transcript"
)

// PlaceholderAnswer is substituted when the candidate submits nothing. The
// oracle always receives a non-empty answer.
const PlaceholderAnswer = "no answer given"

// genericProbe is the fallback follow-up used when the oracle withholds one
// despite a low score.
const genericProbe = "Pick the least confident part of your last answer and explain it in more depth."

// DefaultFollowUpThreshold is the controller-level routing threshold. It is
// deliberately independent of each verdict's own pass_threshold: verdicts can
// carry 65 or 75 while routing stays fixed unless reconfigured.
const DefaultFollowUpThreshold = 70

// EndReasonExhausted is reported when the question bank has no unused
// questions left.
const EndReasonExhausted = "questions_exhausted"

// ErrNoPendingQuestion is returned when an answer arrives for a session that
// is not awaiting one.
var ErrNoPendingQuestion = errors.New("session has no pending question")

// Route is the closed set of outcomes the controller can pick after grading.
type Route string

const (
	RouteFollowUp     Route = "follow_up"
	RouteNextQuestion Route = "next_question"
)

// TurnResult is what one completed SubmitAnswer cycle hands back to the
// caller: the verdict, where the controller routed, and either the next
// question or the end of the interview.
type TurnResult struct {
	SessionID    string             `json:"session_id"`
	Verdict      *grading.Verdict   `json:"verdict"`
	Route        Route              `json:"route"`
	NextQuestion *question.Question `json:"next_question,omitempty"`
	Ended        bool               `json:"session_ended"`
	EndReason    string             `json:"end_reason,omitempty"`
}

// Config carries the controller's tunables.
type Config struct {
	// FollowUpThreshold routes scores below it to a follow-up question.
	// Zero means DefaultFollowUpThreshold.
	FollowUpThreshold int
}

// Conductor is the interview turn controller. It owns every session state
// transition: question selection, answer intake, grading, and routing.
type Conductor struct {
	bank       *question.Bank
	grader     grading.Grader
	store      *session.Store
	transcript *transcript.Writer
	logger     *zap.Logger
	threshold  int
}

// NewConductor wires a turn controller. The transcript writer may be nil when
// no persisted output is wanted.
func NewConductor(bank *question.Bank, grader grading.Grader, store *session.Store, tw *transcript.Writer, cfg *Config, log *zap.Logger) *Conductor {
	threshold := DefaultFollowUpThreshold
	if cfg != nil && cfg.FollowUpThreshold > 0 {
		threshold = cfg.FollowUpThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Conductor{
		bank:       bank,
		grader:     grader,
		store:      store,
		transcript: tw,
		logger:     log,
		threshold:  threshold,
	}
}

// Store exposes the conductor's session store for read-side callers.
func (c *Conductor) Store() *session.Store {
	return c.store
}

// StartSession creates a session and presents its first question. The
// grounding bundle is kept on the session and forwarded to the oracle with
// every grading request. An exhausted bank surfaces question.ErrExhausted.
func (c *Conductor) StartSession(ctx context.Context, id string, grounding map[string]string) (*session.Session, error) {
	sess, err := c.store.Create(id, grounding)
	if err != nil {
		return nil, err
	}

	held, release, err := c.store.Acquire(sess.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := c.selectNext(held); err != nil {
		c.store.Delete(held.ID)
		return nil, err
	}

	c.logger.Info("session started",
		zap.String(logger.FieldSessionID, held.ID),
		zap.String(logger.FieldQuestionID, held.CurrentQuestion.ID),
	)

	return held, nil
}

// SubmitAnswer runs one full grading cycle for the session: store the answer,
// obtain a verdict, append the turn, and route to a follow-up or the next
// bank question. On grading failure the session returns to awaiting-answer so
// the caller can resubmit the same turn; no partial history is kept.
func (c *Conductor) SubmitAnswer(ctx context.Context, sessionID, answerText string) (*TurnResult, error) {
	sess, release, err := c.store.Acquire(sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	if sess.State != session.StateAwaitingAnswer || sess.CurrentQuestion == nil {
		return nil, fmt.Errorf("%w: session %s is in state %s", ErrNoPendingQuestion, sessionID, sess.State)
	}

	answer := strings.TrimSpace(answerText)
	if answer == "" {
		answer = PlaceholderAnswer
	}

	asked := sess.CurrentQuestion
	sess.LastAnswerText = answer
	sess.State = session.StateGrading

	verdict, err := c.grader.Grade(ctx, asked, answer, sess.Grounding)
	if err != nil {
		// The turn is retryable: nothing was appended, the question stands.
		sess.State = session.StateAwaitingAnswer
		c.logger.Warn("grading failed",
			zap.String(logger.FieldSessionID, sess.ID),
			zap.String(logger.FieldQuestionID, asked.ID),
			zap.Error(err),
		)
		return nil, err
	}

	sess.AppendTurn(asked, answer, verdict)
	sess.LastVerdict = verdict

	result := &TurnResult{
		SessionID: sess.ID,
		Verdict:   verdict,
		Route:     c.route(verdict),
	}

	switch result.Route {
	case RouteFollowUp:
		followUp := c.synthesizeFollowUp(asked, verdict)
		sess.CurrentQuestion = followUp
		sess.State = session.StateAwaitingAnswer
		result.NextQuestion = followUp
	case RouteNextQuestion:
		next, err := c.selectNext(sess)
		if errors.Is(err, question.ErrExhausted) {
			sess.State = session.StateSelecting
			sess.CurrentQuestion = nil
			result.Ended = true
			result.EndReason = EndReasonExhausted
		} else if err != nil {
			return nil, err
		} else {
			result.NextQuestion = next
		}
	}

	c.logTurn(sess, asked, verdict, result)
	c.writeTranscript(sess, asked, answer, verdict, result)

	return result, nil
}

// route decides where the interview goes after a verdict. A missing score is
// treated as below threshold: an ungraded answer must never silently pass.
func (c *Conductor) route(v *grading.Verdict) Route {
	if v.Score == nil || *v.Score < c.threshold {
		return RouteFollowUp
	}
	return RouteNextQuestion
}

// selectNext picks the next unused bank question, records it as asked, and
// moves the session to awaiting-answer.
func (c *Conductor) selectNext(sess *session.Session) (*question.Question, error) {
	next, err := c.bank.PickNext(sess.AskedQuestionIDs)
	if err != nil {
		return nil, err
	}

	sess.MarkAsked(next.ID)
	sess.CurrentQuestion = next
	sess.LastAnswerText = ""
	sess.LastVerdict = nil
	sess.State = session.StateAwaitingAnswer

	return next, nil
}

// synthesizeFollowUp builds the single-use probe question for a low-scoring
// answer. Follow-ups are not bank questions: their ids are never added to the
// asked set and their difficulty score is absent.
func (c *Conductor) synthesizeFollowUp(base *question.Question, v *grading.Verdict) *question.Question {
	prompt := strings.TrimSpace(v.FollowUpQuestion)
	if prompt == "" {
		prompt = genericProbe
	}

	return &question.Question{
		ID:          "followup:" + base.ID,
		Prompt:      prompt,
		Difficulty:  question.DifficultyFollowUp,
		Topic:       v.MetadataUsed.Topic,
		Subcategory: v.MetadataUsed.Subcategory,
		Tags:        []string{},
	}
}

func (c *Conductor) logTurn(sess *session.Session, asked *question.Question, v *grading.Verdict, result *TurnResult) {
	fields := []zap.Field{
		zap.String(logger.FieldSessionID, sess.ID),
		zap.String(logger.FieldQuestionID, asked.ID),
		zap.String("route", string(result.Route)),
		zap.Bool("session_ended", result.Ended),
	}
	if v.Score != nil {
		fields = append(fields, zap.Int("score", *v.Score))
	}
	if result.NextQuestion != nil {
		fields = append(fields, zap.String("next_question_id", result.NextQuestion.ID))
	}

	c.logger.Info("turn graded", fields...)
}

func (c *Conductor) writeTranscript(sess *session.Session, asked *question.Question, answer string, v *grading.Verdict, result *TurnResult) {
	if c.transcript == nil {
		return
	}

	rec := &transcript.Record{
		SessionID:    sess.ID,
		QuestionID:   asked.ID,
		QuestionText: asked.Prompt,
		AnswerText:   answer,
		Verdict:      v,
	}
	if result.NextQuestion != nil {
		rec.NextQuestionID = result.NextQuestion.ID
		rec.NextQuestionText = result.NextQuestion.Prompt
	}

	if err := c.transcript.Append(rec); err != nil {
		c.logger.Warn("writing transcript record failed",
			zap.String(logger.FieldSessionID, sess.ID),
			zap.Error(err),
		)
	}
}
