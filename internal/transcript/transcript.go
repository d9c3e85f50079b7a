// Package transcript persists one JSON line per completed interview turn to
// an append-only file, the shape an external logger or reporting job can
// consume directly.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/hyerim-cho/techterview/internal/grading"
)

// Record is the persisted form of one turn.
type Record struct {
	Timestamp        time.Time        `json:"timestamp"`
	SessionID        string           `json:"session_id"`
	QuestionID       string           `json:"question_id"`
	QuestionText     string           `json:"question_text"`
	AnswerText       string           `json:"answer_text"`
	Verdict          *grading.Verdict `json:"verdict"`
	NextQuestionID   string           `json:"next_question_id,omitempty"`
	NextQuestionText string           `json:"next_question_text,omitempty"`
}

// Writer appends turn records to a file, one JSON object per line.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewWriter opens (or creates) the transcript file for appending.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening transcript file %q: %w", path, err)
	}

	return &Writer{file: f, enc: json.NewEncoder(f)}, nil
}

// Append writes one record. The timestamp is stamped here when the record
// carries none.
func (w *Writer) Append(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("transcript record is required")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("appending transcript record: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
