package review

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resultSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["overall_assessment", "approve", "concerns"],
  "properties": {
    "overall_assessment": {"type": "string"},
    "approve": {"type": "boolean"},
    "concerns": {"type": "array", "items": {"$ref": "#/$defs/concern"}}
  },
  "$defs": {
    "line": {
      "anyOf": [
        {"type": "integer"},
        {"type": "string", "pattern": "^\\s*[0-9]*\\s*$"},
        {"type": "null"}
      ]
    },
    "optionalText": {"type": ["string", "null"]},
    "concern": {
      "type": "object",
      "required": ["severity", "type", "description"],
      "properties": {
        "file_path": {"$ref": "#/$defs/optionalText"},
        "line_number_start": {"$ref": "#/$defs/line"},
        "line_number_end": {"$ref": "#/$defs/line"},
        "severity": {"type": "string", "pattern": "^(?i)\\s*(critical|high|medium|low)\\s*$"},
        "type": {"type": "string"},
        "vulnerability_type": {"$ref": "#/$defs/optionalText"},
        "description": {"type": "string"},
        "suggestion": {"$ref": "#/$defs/optionalText"}
      }
    }
  }
}`

var resultSchema = jsonschema.MustCompileString("analysis-result.json", resultSchemaJSON)

type wireConcern struct {
	FilePath          string     `json:"file_path"`
	LineStart         lineNumber `json:"line_number_start"`
	LineEnd           lineNumber `json:"line_number_end"`
	Severity          string     `json:"severity"`
	Type              string     `json:"type"`
	VulnerabilityType string     `json:"vulnerability_type"`
	Description       string     `json:"description"`
	Suggestion        string     `json:"suggestion"`
}

type wireResult struct {
	OverallAssessment string        `json:"overall_assessment"`
	Approve           bool          `json:"approve"`
	Concerns          []wireConcern `json:"concerns"`
}

// lineNumber accepts a JSON integer, a numeric string, or null.
type lineNumber int

func (n *lineNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("line number %q: %w", s, err)
		}
		*n = lineNumber(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = lineNumber(int(f))
	return nil
}

// Validate turns raw model output into a Result. The returned Result is
// always well formed: when the output breaks the response contract it is the
// fallback result and the error is a *ParseError.
func Validate(raw string) (Result, error) {
	body := stripFence(raw)

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return FallbackResult(raw), &ParseError{Raw: raw, Err: fmt.Errorf("decoding JSON: %w", err)}
	}
	if err := resultSchema.Validate(doc); err != nil {
		return FallbackResult(raw), &ParseError{Raw: raw, Err: fmt.Errorf("schema: %w", err)}
	}

	var w wireResult
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return FallbackResult(raw), &ParseError{Raw: raw, Err: fmt.Errorf("decoding result: %w", err)}
	}

	result := Result{
		OverallAssessment: w.OverallAssessment,
		Approve:           w.Approve,
		Concerns:          make([]Concern, 0, len(w.Concerns)),
	}
	for i, c := range w.Concerns {
		sev, ok := ParseSeverity(c.Severity)
		if !ok {
			return FallbackResult(raw), &ParseError{Raw: raw, Err: fmt.Errorf("concern %d: unknown severity %q", i, c.Severity)}
		}
		result.Concerns = append(result.Concerns, Concern{
			FilePath:          c.FilePath,
			LineStart:         int(c.LineStart),
			LineEnd:           int(c.LineEnd),
			Severity:          sev,
			Type:              c.Type,
			VulnerabilityType: c.VulnerabilityType,
			Description:       c.Description,
			Suggestion:        c.Suggestion,
		})
	}
	return result, nil
}

// stripFence returns the JSON body of raw. Output that already parses as
// JSON is used as is, so fences quoted inside string values are left alone.
// Otherwise the body is the first fenced block whose opening fence starts a
// line; its info string ("json" or empty) is dropped and the block ends at
// the first fence that starts a later line.
func stripFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}

	rest, ok := strings.CutPrefix(trimmed, "```")
	if !ok {
		i := strings.Index(trimmed, "\n```")
		if i < 0 {
			return trimmed
		}
		rest = trimmed[i+4:]
	}

	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		if !strings.ContainsAny(rest[:nl], "{[") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "\n```"); end >= 0 {
		rest = rest[:end]
	}
	rest = strings.TrimSpace(rest)
	return strings.TrimSpace(strings.TrimSuffix(rest, "```"))
}
