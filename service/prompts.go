package service

import (
	"fmt"
	"sort"
	"strings"
)

func mcqSystemPrompt(n int) string {
	return fmt.Sprintf(`You are a helpful assistant that creates multiple-choice questions. `+
		`Return ONLY a single valid JSON object following this schema, with no other text:

{
  "1": { "question": "...", "options": {"a":"...","b":"...","c":"...","d":"..."}, "answer": "..." },
  "2": { ... }
}

Notes:
- Create exactly %d entries, numbered from 1 to %d.
- The "options" key must contain the keys a, b, c, d.
- The "answer" must be the full text of the correct option (not the option letter), and it must exactly match one of the values in "options".
- Do not include explanations or extra fields.
- Wrong options (distractors) must be plausible and must not repeat.`, n, n)
}

// difficultyInstruction returns an extra system prompt line steering
// question difficulty. Unknown levels get no instruction.
func difficultyInstruction(difficulty string) string {
	switch difficulty {
	case "easy":
		return "Target difficulty: easy. Ask about facts stated directly and literally in the content."
	case "medium":
		return "Target difficulty: medium. Require connecting two or more statements from the content."
	case "hard":
		return "Target difficulty: hard. Require careful reasoning over details or subtle distinctions in the content, with closely competing distractors."
	}
	return ""
}

func mcqUserPrompt(n int, source string) string {
	return fmt.Sprintf("Create %d multiple-choice questions from the content below. "+
		"Use this content as the only source for the answers. "+
		"If the content is too thin for precise questions, create plausible but justifiable options.\n\n"+
		"Content:\n\n%s", n, source)
}

func verifySystemPrompt() string {
	return `You are an assistant that checks whether a multiple-choice question is supported by the provided passage. ` +
		`Answer ONLY with a valid JSON object (no other text) following this schema:

{
  "supported": true/false,
  "confidence": 0.0-1.0,
  "evidence": "a short quote or phrase from the passage serving as evidence",
  "reason": "briefly, why supported or not"
}

Base your judgement only on the content in the 'Context' field below. If the context contains no evidence, return supported: false.`
}

func verifyUserPrompt(question string, options map[string]string, answer, context string) string {
	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", key, options[key]))
	}
	return "Question:\n" + question + "\n\n" +
		"Options:\n" + strings.Join(lines, "\n") + "\n\n" +
		"Answer:\n" + answer + "\n\n" +
		"Context:\n" + context + "\n\n" +
		"Answer as requested."
}
