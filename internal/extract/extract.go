// Package extract pulls a single JSON object out of free-form model output.
//
// Models are asked for JSON but frequently wrap it in markdown fences,
// prepend a sentence, append commentary, or get cut off by the token limit.
// Extract tries progressively more lenient strategies and reports which one
// produced the record.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"

	"github.com/abhisek/skillprobe/internal/interview"
)

// snippetLen is the number of characters of the offending text kept on an
// ExtractionError.
const snippetLen = 200

// Record is a decoded JSON object.
type Record map[string]any

// ExtractionError is returned when no JSON object could be recovered.
type ExtractionError struct {
	// Snippet holds the first characters of the model output.
	Snippet string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no JSON object found in model output: %q", e.Snippet)
}

var fenceRe = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)```")

// Extract returns the first JSON object found in text.
//
// Provenance is parsed_clean when the whole text is one JSON object, and
// parsed_recovered when a fence had to be stripped, surrounding prose
// skipped, or the object repaired. Extract never guesses field values; a
// failure returns *ExtractionError.
func Extract(text string) (Record, interview.Provenance, error) {
	trimmed := strings.TrimSpace(text)
	if rec, ok := decodeWhole(trimmed); ok {
		return rec, interview.ProvenanceClean, nil
	}

	bodies := []string{trimmed}
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		bodies = []string{strings.TrimSpace(m[1]), trimmed}
	}

	for _, body := range bodies {
		if rec, ok := decodeWhole(body); ok {
			return rec, interview.ProvenanceRecovered, nil
		}
		if rec, ok := decodeFirst(body); ok {
			return rec, interview.ProvenanceRecovered, nil
		}
		if rec, ok := scanBalanced(body); ok {
			return rec, interview.ProvenanceRecovered, nil
		}
	}

	for _, body := range bodies {
		if rec, ok := repair(body); ok {
			return rec, interview.ProvenanceRecovered, nil
		}
	}

	return nil, "", &ExtractionError{Snippet: Snippet(text)}
}

// Snippet returns at most the first 200 characters of s.
func Snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetLen {
		return s
	}
	return string([]rune(s)[:snippetLen])
}

func decodeWhole(s string) (Record, bool) {
	if s == "" || s[0] != '{' {
		return nil, false
	}
	var rec Record
	if err := json.Unmarshal([]byte(s), &rec); err != nil || rec == nil {
		return nil, false
	}
	return rec, true
}

// decodeFirst decodes the first object starting at the first '{' and
// ignores whatever follows it.
func decodeFirst(s string) (Record, bool) {
	idx := strings.IndexByte(s, '{')
	if idx < 0 {
		return nil, false
	}
	var rec Record
	dec := json.NewDecoder(strings.NewReader(s[idx:]))
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return nil, false
	}
	return rec, true
}

// scanBalanced tries every '{' as a start and decodes the span up to its
// matching '}', skipping braces inside string literals. Once an unclosed
// '{' is seen, later objects in value position belong to that truncated
// record and are left for repair.
func scanBalanced(s string) (Record, bool) {
	unclosed := false
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		end := matchBrace(s, start)
		if end < 0 {
			unclosed = true
			continue
		}
		if unclosed && inValuePosition(s[:start]) {
			continue
		}
		if rec, ok := decodeWhole(s[start : end+1]); ok {
			return rec, true
		}
	}
	return nil, false
}

func inValuePosition(prefix string) bool {
	p := strings.TrimRight(prefix, " \t\r\n")
	return p != "" && strings.ContainsRune(":,[", rune(p[len(p)-1]))
}

// matchBrace returns the index of the '}' closing the '{' at start, or -1.
func matchBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// repair handles objects that are truncated or slightly malformed, which
// is what a max_tokens cutoff produces.
func repair(s string) (Record, bool) {
	idx := strings.IndexByte(s, '{')
	if idx < 0 {
		return nil, false
	}
	fixed, err := jsonrepair.JSONRepair(s[idx:])
	if err != nil {
		return nil, false
	}
	return decodeWhole(strings.TrimSpace(fixed))
}
