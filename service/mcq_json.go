package service

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tieubaoca/mcq-gen-be/types"
)

var (
	codeFenceRe     = regexp.MustCompile("```(?:json)?")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSONObject finds the first balanced JSON object in model
// output, ignoring markdown code fences and any prose around it.
// Braces inside JSON strings do not count toward the balance.
func ExtractJSONObject(text string) (string, bool) {
	text = codeFenceRe.ReplaceAllString(text, "")
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// DecodeMCQBlock parses model output into a block of raw questions.
// A false return means the output yielded no usable questions, which
// callers treat as an empty iteration rather than an error. Before
// giving up, one repair pass strips trailing commas.
func DecodeMCQBlock(raw string) (map[string]types.RawMCQ, bool) {
	obj, found := ExtractJSONObject(raw)
	if !found {
		return nil, false
	}
	var block map[string]types.RawMCQ
	if err := json.Unmarshal([]byte(obj), &block); err != nil {
		repaired := trailingCommaRe.ReplaceAllString(obj, "$1")
		if err := json.Unmarshal([]byte(repaired), &block); err != nil {
			return nil, false
		}
	}
	valid := make(map[string]types.RawMCQ, len(block))
	for key, q := range block {
		if option, ok := matchOption(q); ok {
			q.Answer = option
			valid[key] = q
		}
	}
	if len(valid) == 0 {
		return nil, false
	}
	return valid, true
}

// matchOption requires a question, the four options a through d, and an
// answer whose text matches one of the options. Matching tolerates
// surrounding whitespace, but the returned text is the option's own, so
// the answer delivered downstream always equals one option value
// verbatim.
func matchOption(q types.RawMCQ) (string, bool) {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 {
		return "", false
	}
	for _, key := range []string{"a", "b", "c", "d"} {
		if _, ok := q.Options[key]; !ok {
			return "", false
		}
	}
	answer := strings.TrimSpace(q.Answer)
	for _, key := range []string{"a", "b", "c", "d"} {
		if strings.TrimSpace(q.Options[key]) == answer {
			return q.Options[key], true
		}
	}
	return "", false
}

// sortedQuestionKeys returns block keys in numeric order where
// possible, falling back to lexicographic order for non-numeric keys.
func sortedQuestionKeys(block map[string]types.RawMCQ) []string {
	keys := make([]string, 0, len(block))
	for key := range block {
		keys = append(keys, key)
	}
	return sortKeysNumeric(keys)
}

func sortKeysNumeric(keys []string) []string {
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(keys[i])
		b, berr := strconv.Atoi(keys[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		if aerr == nil {
			return true
		}
		if berr == nil {
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// DecodeVerdict parses a verification response. A false return means
// no verdict could be recovered.
func DecodeVerdict(raw string) (*types.ModelVerdict, bool) {
	obj, found := ExtractJSONObject(raw)
	if !found {
		return nil, false
	}
	var verdict types.ModelVerdict
	if err := json.Unmarshal([]byte(obj), &verdict); err != nil {
		repaired := trailingCommaRe.ReplaceAllString(obj, "$1")
		if err := json.Unmarshal([]byte(repaired), &verdict); err != nil {
			return nil, false
		}
	}
	return &verdict, true
}
