package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hyerim-cho/techterview/internal/question"
)

// errNoObject signals that the raw text carried no JSON object at all.
var errNoObject = errors.New("no JSON object found in oracle response")

// Coerce extracts the JSON object embedded in raw oracle output and turns it
// into a normalized Verdict for the graded question. It tolerates prose and
// code fences around the object but performs no repair itself: a failure here
// tells the grader to spend its single repair round-trip.
func Coerce(raw string, q *question.Question) (*Verdict, error) {
	objText, err := extractObject(raw)
	if err != nil {
		return nil, err
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(objText), &data); err != nil {
		return nil, fmt.Errorf("parse oracle response: %w", err)
	}

	// The score is coerced by hand rather than through the decoder so that a
	// missing or garbage value degrades to nil instead of failing the whole
	// verdict.
	score := coerceScore(data["score"])
	delete(data, "score")

	verdict := &Verdict{}
	cfg := &mapstructure.DecoderConfig{
		Result:           verdict,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("build verdict decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode verdict fields: %w", err)
	}

	if _, ok := data["question_id"]; !ok {
		return nil, errors.New("verdict is missing question_id")
	}

	verdict.Score = score
	verdict.Raw = raw
	verdict.normalize(q)

	return verdict, nil
}

// extractObject locates the first '{' and the last '}' in the text and
// returns the substring between them. This tolerates the most common oracle
// failure mode: prose or markdown fences wrapped around the object.
func extractObject(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end < start {
		return "", errNoObject
	}
	return trimmed[start : end+1], nil
}

func coerceScore(v any) *int {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		score := int(math.Round(val))
		return &score
	case int:
		score := val
		return &score
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil
		}
		score := int(math.Round(f))
		return &score
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return nil
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil
		}
		score := int(math.Round(f))
		return &score
	default:
		return nil
	}
}
