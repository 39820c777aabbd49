// Package jsonrepair recovers structured data from model output that claims
// to be JSON. Provider responses arrive wrapped in markdown fences, prefixed
// with prose, missing commas at generation seams, or truncated mid-object at
// a token limit. The engine applies a fixed repair sequence and, when the
// candidate still does not parse, backtracks by discarding the incomplete
// tail object and trying again - iterating toward the largest valid prefix.
package jsonrepair

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// maxAttempts is the repair budget: the number of truncate-and-retry
	// cycles allowed before giving up.
	maxAttempts = 50
	// minCandidate stops the backtracking once the text is too short to
	// hold any useful object.
	minCandidate = 10
)

// ErrUnrepairable is wrapped by every terminal failure of the engine.
var ErrUnrepairable = errors.New("jsonrepair: texto não pôde ser reparado")

var (
	objectSeamRe = regexp.MustCompile(`\}\s*\{`)
	arraySeamRe  = regexp.MustCompile(`\]\s*\[`)
	// A closing quote immediately followed by an opening quote is a
	// value -> key boundary missing its comma.
	quoteSeamRe = regexp.MustCompile(`"\s+"`)
	// Same for a bare number, boolean or null followed by a quote.
	scalarSeamRe = regexp.MustCompile(`([0-9]|true|false|null)\s+"`)
)

// RepairAndParse repairs text and parses it, backtracking on failure.
// attempts reports how many truncate-and-retry cycles ran before success:
// callers log a "recovered after repair" warning only when attempts > 0.
func RepairAndParse(text string) (value any, attempts int, err error) {
	candidate := text
	for attempt := 0; attempt < maxAttempts; attempt++ {
		repaired, ok := repair(candidate)
		if !ok {
			// No brace or bracket anywhere: fail now instead of burning
			// the whole budget on a text that can never parse.
			return nil, attempt, fmt.Errorf("nenhuma estrutura JSON encontrada: %w", ErrUnrepairable)
		}

		var v any
		if json.Unmarshal([]byte(repaired), &v) == nil {
			return v, attempt, nil
		}

		// The floor stops further backtracking; the candidate it rejects
		// already had its parse attempt above.
		if len(candidate) < minCandidate {
			return nil, attempt + 1, fmt.Errorf("candidato ficou curto demais: %w", ErrUnrepairable)
		}

		// Backtrack: keep the pre-repair candidate up to and including its
		// last closing brace, so a valid prefix survives the cut intact.
		// When the candidate already ends on that brace, step back one more
		// so the loop keeps strictly shrinking.
		cut := strings.LastIndex(candidate, "}")
		if cut == len(candidate)-1 {
			cut = strings.LastIndex(candidate[:cut], "}")
		}
		if cut < 0 {
			return nil, attempt + 1, fmt.Errorf("sem fronteira estrutural para retroceder: %w", ErrUnrepairable)
		}
		candidate = candidate[:cut+1]
	}
	return nil, maxAttempts, fmt.Errorf("orçamento de %d tentativas esgotado: %w", maxAttempts, ErrUnrepairable)
}

// repair applies the six-step textual repair sequence. It reports false when
// the text contains no JSON structure at all.
func repair(s string) (string, bool) {
	// 1. Markdown code-fence markers.
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	// 2. Drop leading prose.
	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return "", false
	}
	s = s[start:]

	// 3. Missing commas at common generation seams.
	s = objectSeamRe.ReplaceAllString(s, "}, {")
	s = arraySeamRe.ReplaceAllString(s, "], [")
	s = quoteSeamRe.ReplaceAllString(s, `", "`)
	s = scalarSeamRe.ReplaceAllString(s, `$1, "`)

	// 4. A string truncated mid-value leaves an odd quote count.
	if countUnescapedQuotes(s)%2 == 1 {
		s += `"`
	}

	// 5. Trailing comma at end of text.
	s = strings.TrimRight(s, " \t\r\n")
	s = strings.TrimSuffix(s, ",")

	// 6. Balance braces and brackets.
	s += closers(s)
	return s, true
}

// countUnescapedQuotes counts double quotes not preceded by an odd run of
// backslashes.
func countUnescapedQuotes(s string) int {
	count := 0
	backslashes := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			backslashes++
		case '"':
			if backslashes%2 == 0 {
				count++
			}
			backslashes = 0
		default:
			backslashes = 0
		}
	}
	return count
}

// closers returns the closing braces/brackets needed to balance s, in
// innermost-first order. Delimiters inside string literals are ignored;
// stray closers are skipped - the parse attempt will catch them.
func closers(s string) string {
	var stack []byte
	inString := false
	backslashes := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' {
			backslashes++
			continue
		}
		if c == '"' && backslashes%2 == 0 {
			inString = !inString
		}
		backslashes = 0
		if inString {
			continue
		}
		switch c {
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
