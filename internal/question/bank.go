package question

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrExhausted is returned by PickNext when every question in the bank has
// already been asked. It is a terminal condition for the interview, not a bug.
var ErrExhausted = errors.New("no more questions available")

// ErrNotFound is returned by Lookup for unknown question ids.
var ErrNotFound = errors.New("question not found")

// Bank holds the ordered, read-only collection of interview questions.
// It is loaded once at startup and safe for concurrent use afterwards.
type Bank struct {
	rows []*Question
	byID map[string]*Question
}

// LoadFile reads the question bank from a CSV file.
func LoadFile(path string, logger *zap.Logger) (*Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening question bank %q: %w", path, err)
	}
	defer f.Close()

	bank, err := Load(f, logger)
	if err != nil {
		return nil, fmt.Errorf("loading question bank %q: %w", path, err)
	}
	return bank, nil
}

// Load parses CSV question records from the reader. The first row must be a
// header naming the columns. Records with an empty id are skipped and counted,
// not fatal: a partial bank is still usable.
func Load(r io.Reader, logger *zap.Logger) (*Bank, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			// Exports from spreadsheet tools often carry a BOM.
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}

	if _, ok := columns["id"]; !ok {
		return nil, errors.New("question bank header is missing the id column")
	}

	bank := &Bank{byID: make(map[string]*Question)}

	skipped := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		cell := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		id := cell("id")
		if id == "" {
			skipped++
			logger.Warn("skipping question record without id", zap.Int("line", line))
			continue
		}

		q := &Question{
			ID:              id,
			Prompt:          cell("question"),
			ReferenceAnswer: cell("answer"),
			Difficulty:      cell("difficulty"),
			Topic:           cell("topic"),
			Subcategory:     cell("subcategory"),
			DifficultyScore: parseScore(cell("difficulty_score")),
			Tags:            SplitTags(cell("tags")),
			CodeExample:     cell("code_example"),
			TimeComplexity:  cell("time_complexity"),
			SpaceComplexity: cell("space_complexity"),
		}

		bank.rows = append(bank.rows, q)
		bank.byID[id] = q
	}

	logger.Info("question bank loaded",
		zap.Int("questions", len(bank.rows)),
		zap.Int("skipped", skipped),
	)

	return bank, nil
}

// PickNext returns the first question, in source order, whose id is not in
// asked. Source order is the sole pacing mechanism: no randomization and no
// difficulty-aware sequencing.
func (b *Bank) PickNext(asked map[string]bool) (*Question, error) {
	for _, q := range b.rows {
		if !asked[q.ID] {
			return q, nil
		}
	}
	return nil, ErrExhausted
}

// Lookup returns the question with the given id.
func (b *Bank) Lookup(id string) (*Question, error) {
	q, ok := b.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return q, nil
}

// Len returns the number of loaded questions.
func (b *Bank) Len() int {
	return len(b.rows)
}

func parseScore(raw string) *float64 {
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}
