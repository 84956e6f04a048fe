package service

import (
	"testing"
)

const validBlock = `{
  "1": {
    "question": "What is the capital of France?",
    "options": {"a": "Paris", "b": "Lyon", "c": "Nice", "d": "Marseille"},
    "answer": "Paris"
  }
}`

func TestDecodeMCQBlockPlain(t *testing.T) {
	block, ok := DecodeMCQBlock(validBlock)
	if !ok {
		t.Fatal("expected valid block")
	}
	if len(block) != 1 {
		t.Fatalf("expected 1 question, got %d", len(block))
	}
	q := block["1"]
	if q.Question != "What is the capital of France?" {
		t.Errorf("unexpected question: %q", q.Question)
	}
	if q.Answer != "Paris" {
		t.Errorf("unexpected answer: %q", q.Answer)
	}
}

func TestDecodeMCQBlockCanonicalizesAnswer(t *testing.T) {
	raw := `{
  "1": {
    "question": "What is the capital of France?",
    "options": {"a": "Paris", "b": "Lyon", "c": "Nice", "d": "Marseille"},
    "answer": "Paris "
  }
}`
	block, ok := DecodeMCQBlock(raw)
	if !ok {
		t.Fatal("expected valid block")
	}
	q := block["1"].Normalize()
	found := false
	for _, option := range q.Options {
		if option == q.Correct {
			found = true
		}
	}
	if !found {
		t.Errorf("correct answer %q equals no option value; options=%v", q.Correct, q.Options)
	}
	if q.Correct != "Paris" {
		t.Errorf("expected answer rewritten to option text, got %q", q.Correct)
	}
}

func TestDecodeMCQBlockProseAndFences(t *testing.T) {
	raw := "Sure! Here are your questions:\n```json\n" + validBlock + "\n```\nLet me know if you need more."
	block, ok := DecodeMCQBlock(raw)
	if !ok {
		t.Fatal("expected valid block inside fences")
	}
	if len(block) != 1 {
		t.Fatalf("expected 1 question, got %d", len(block))
	}
}

func TestDecodeMCQBlockTrailingCommas(t *testing.T) {
	raw := `{
  "1": {
    "question": "Which option is correct?",
    "options": {"a": "one", "b": "two", "c": "three", "d": "four",},
    "answer": "two",
  },
}`
	block, ok := DecodeMCQBlock(raw)
	if !ok {
		t.Fatal("expected trailing commas to be repaired")
	}
	if block["1"].Answer != "two" {
		t.Errorf("unexpected answer: %q", block["1"].Answer)
	}
}

func TestDecodeMCQBlockTruncated(t *testing.T) {
	raw := `{"1": {"question": "cut off", "options": {"a": "x"`
	if _, ok := DecodeMCQBlock(raw); ok {
		t.Fatal("expected truncated JSON to fail")
	}
}

func TestDecodeMCQBlockNoJSON(t *testing.T) {
	if _, ok := DecodeMCQBlock("I cannot create questions from this content."); ok {
		t.Fatal("expected prose-only output to fail")
	}
}

func TestDecodeMCQBlockDropsInvalidQuestions(t *testing.T) {
	raw := `{
  "1": {
    "question": "Answer does not match any option",
    "options": {"a": "one", "b": "two", "c": "three", "d": "four"},
    "answer": "five"
  },
  "2": {
    "question": "This one is fine",
    "options": {"a": "one", "b": "two", "c": "three", "d": "four"},
    "answer": "one"
  }
}`
	block, ok := DecodeMCQBlock(raw)
	if !ok {
		t.Fatal("expected block with one valid question")
	}
	if len(block) != 1 {
		t.Fatalf("expected invalid question dropped, got %d entries", len(block))
	}
	if _, kept := block["2"]; !kept {
		t.Fatal("expected question 2 to survive")
	}
}

func TestDecodeMCQBlockAllInvalid(t *testing.T) {
	raw := `{"1": {"question": "", "options": {}, "answer": ""}}`
	if _, ok := DecodeMCQBlock(raw); ok {
		t.Fatal("expected block with no valid questions to fail")
	}
}

func TestExtractJSONObjectBracesInStrings(t *testing.T) {
	raw := `prefix {"key": "value with } brace", "n": 1} suffix`
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		t.Fatal("expected object to be found")
	}
	if obj != `{"key": "value with } brace", "n": 1}` {
		t.Errorf("unexpected object: %s", obj)
	}
}

func TestSortedQuestionKeysNumeric(t *testing.T) {
	block, ok := DecodeMCQBlock(`{
  "10": {"question": "q10", "options": {"a": "1", "b": "2", "c": "3", "d": "4"}, "answer": "1"},
  "2": {"question": "q2", "options": {"a": "1", "b": "2", "c": "3", "d": "4"}, "answer": "1"},
  "1": {"question": "q1", "options": {"a": "1", "b": "2", "c": "3", "d": "4"}, "answer": "1"}
}`)
	if !ok {
		t.Fatal("expected valid block")
	}
	keys := sortedQuestionKeys(block)
	want := []string{"1", "2", "10"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestDecodeVerdict(t *testing.T) {
	raw := "```json\n{\"supported\": true, \"confidence\": 0.9, \"evidence\": \"quote\", \"reason\": \"matches\"}\n```"
	verdict, ok := DecodeVerdict(raw)
	if !ok {
		t.Fatal("expected verdict to parse")
	}
	if !verdict.Supported || verdict.Confidence != 0.9 {
		t.Errorf("unexpected verdict: %+v", verdict)
	}
}

func TestDecodeVerdictGarbage(t *testing.T) {
	if _, ok := DecodeVerdict("the answer seems fine to me"); ok {
		t.Fatal("expected garbage verdict to fail")
	}
}
