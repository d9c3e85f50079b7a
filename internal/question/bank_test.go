package question

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const bankCSV = `id,question,answer,difficulty,topic,subcategory,difficulty_score,tags,code_example,time_complexity,space_complexity
101,What is a slice?,A view over an array.,easy,go_basics,data_structures,0.3,"slice,array",,O(1),O(1)
,orphan row without id,,easy,go_basics,,,,,,
305,Explain the scheduler.,Goroutines multiplexed onto OS threads.,medium,go_internals,concurrency,0.7,"goroutine,scheduler",,,
409,Describe escape analysis.,Compiler decides stack vs heap.,hard,go_internals,memory,0.9,,,,
`

func loadTestBank(t *testing.T) *Bank {
	t.Helper()

	bank, err := Load(strings.NewReader(bankCSV), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	return bank
}

func TestLoadSkipsRecordsWithoutID(t *testing.T) {
	bank := loadTestBank(t)

	if bank.Len() != 3 {
		t.Fatalf("expected 3 questions, got %d", bank.Len())
	}

	if _, err := bank.Lookup("101"); err != nil {
		t.Fatalf("expected question 101 to be loaded: %v", err)
	}
}

func TestLoadParsesFields(t *testing.T) {
	bank := loadTestBank(t)

	q, err := bank.Lookup("305")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}

	if q.Prompt != "Explain the scheduler." {
		t.Fatalf("unexpected prompt: %q", q.Prompt)
	}

	if q.DifficultyScore == nil || *q.DifficultyScore != 0.7 {
		t.Fatalf("unexpected difficulty score: %v", q.DifficultyScore)
	}

	if len(q.Tags) != 2 || q.Tags[0] != "goroutine" || q.Tags[1] != "scheduler" {
		t.Fatalf("unexpected tags: %v", q.Tags)
	}

	empty, err := bank.Lookup("409")
	if err != nil {
		t.Fatalf("unexpected lookup error: %v", err)
	}
	if len(empty.Tags) != 0 {
		t.Fatalf("expected no tags, got %v", empty.Tags)
	}
}

func TestLoadHandlesBOMHeader(t *testing.T) {
	csv := "\ufeffid,question\n7,Does the BOM survive?\n"

	bank, err := Load(strings.NewReader(csv), nil)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}

	if _, err := bank.Lookup("7"); err != nil {
		t.Fatalf("expected question 7 to be loaded: %v", err)
	}
}

func TestLoadRequiresIDColumn(t *testing.T) {
	csv := "question,answer\nWhat?,That.\n"

	if _, err := Load(strings.NewReader(csv), nil); err == nil {
		t.Fatalf("expected an error for a header without id")
	}
}

func TestPickNextFollowsSourceOrder(t *testing.T) {
	bank := loadTestBank(t)

	asked := map[string]bool{}

	first, err := bank.PickNext(asked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.ID != "101" {
		t.Fatalf("expected first question 101, got %s", first.ID)
	}

	asked["101"] = true
	second, err := bank.PickNext(asked)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != "305" {
		t.Fatalf("expected second question 305, got %s", second.ID)
	}
}

func TestPickNextNeverRepeats(t *testing.T) {
	bank := loadTestBank(t)

	asked := map[string]bool{}
	for i := 0; i < bank.Len(); i++ {
		q, err := bank.PickNext(asked)
		if err != nil {
			t.Fatalf("unexpected error on pick %d: %v", i, err)
		}
		if asked[q.ID] {
			t.Fatalf("question %s returned twice", q.ID)
		}
		asked[q.ID] = true
	}
}

func TestPickNextExhaustion(t *testing.T) {
	bank := loadTestBank(t)

	asked := map[string]bool{}
	for i := 0; i < bank.Len(); i++ {
		q, err := bank.PickNext(asked)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		asked[q.ID] = true
	}

	if _, err := bank.PickNext(asked); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestLookupUnknownID(t *testing.T) {
	bank := loadTestBank(t)

	if _, err := bank.Lookup("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSplitTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "empty", input: "", expect: []string{}},
		{name: "single", input: "gc", expect: []string{"gc"}},
		{name: "spaced", input: " a , b ,, c ", expect: []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SplitTags(tt.input)
			if len(got) != len(tt.expect) {
				t.Fatalf("SplitTags(%q) = %v, want %v", tt.input, got, tt.expect)
			}
			for i := range got {
				if got[i] != tt.expect[i] {
					t.Fatalf("SplitTags(%q) = %v, want %v", tt.input, got, tt.expect)
				}
			}
		})
	}
}
