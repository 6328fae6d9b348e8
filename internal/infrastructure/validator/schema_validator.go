package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"docify/internal/domain/entity"
	"docify/internal/infrastructure/metrics"
)

// ValidationResult is the tagged outcome of one validation run: either a
// fully-shaped document or the reasons it could not be built. Never both.
type ValidationResult struct {
	Valid    bool
	Document *entity.StructuredDocument
	Reasons  []string
}

type SchemaValidator struct{}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

// Validate extracts a JSON object from raw model output and checks it
// against the StructuredDocument schema. Unknown fields are ignored, missing
// optional fields get empty defaults; only a missing object or wrongly-typed
// required field yields Invalid.
func (v *SchemaValidator) Validate(raw string) ValidationResult {
	payload, ok := ExtractJSONObject(raw)
	if !ok {
		metrics.IncValidationRun("invalid")
		return ValidationResult{Reasons: []string{"no JSON object found in model output"}}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		metrics.IncValidationRun("invalid")
		return ValidationResult{Reasons: []string{fmt.Sprintf("decode object: %v", err)}}
	}

	var reasons []string
	doc := &entity.StructuredDocument{
		Title:           requireString(fields, "title", &reasons),
		Summary:         requireString(fields, "summary", &reasons),
		TaskDescription: optionalString(fields, "task_description", &reasons),
		Achievements:    stringList(fields, "achievements", &reasons),
		Challenges:      challengeList(fields, "challenges", &reasons),
		NextSteps:       stringList(fields, "next_steps", &reasons),
		Tags:            stringList(fields, "tags", &reasons),
	}
	doc.TechnicalImplementation = technicalImplementation(fields, &reasons)
	doc.Priority = entity.ParsePriority(optionalString(fields, "priority", &reasons))

	if len(reasons) > 0 {
		metrics.IncValidationRun("invalid")
		return ValidationResult{Reasons: reasons}
	}

	doc.Clamp()
	metrics.IncValidationRun("valid")
	return ValidationResult{Valid: true, Document: doc}
}

func requireString(fields map[string]json.RawMessage, key string, reasons *[]string) string {
	raw, present := fields[key]
	if !present {
		*reasons = append(*reasons, fmt.Sprintf("missing required field %q", key))
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		*reasons = append(*reasons, fmt.Sprintf("field %q is not a string", key))
		return ""
	}
	if strings.TrimSpace(s) == "" {
		*reasons = append(*reasons, fmt.Sprintf("required field %q is empty", key))
	}
	return s
}

func optionalString(fields map[string]json.RawMessage, key string, reasons *[]string) string {
	raw, present := fields[key]
	if !present || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		*reasons = append(*reasons, fmt.Sprintf("field %q is not a string", key))
		return ""
	}
	return s
}

func stringList(fields map[string]json.RawMessage, key string, reasons *[]string) []string {
	raw, present := fields[key]
	if !present || string(raw) == "null" {
		return []string{}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		*reasons = append(*reasons, fmt.Sprintf("field %q is not a list of strings", key))
		return []string{}
	}
	if list == nil {
		return []string{}
	}
	return list
}

func challengeList(fields map[string]json.RawMessage, key string, reasons *[]string) []entity.Challenge {
	raw, present := fields[key]
	if !present || string(raw) == "null" {
		return []entity.Challenge{}
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*reasons = append(*reasons, fmt.Sprintf("field %q is not a list of {issue, resolution} records", key))
		return []entity.Challenge{}
	}
	challenges := make([]entity.Challenge, 0, len(items))
	for i, item := range items {
		issue := optionalString(item, "issue", reasons)
		if issue == "" {
			*reasons = append(*reasons, fmt.Sprintf("challenge %d is missing its issue", i))
			continue
		}
		challenges = append(challenges, entity.Challenge{
			Issue:      issue,
			Resolution: optionalString(item, "resolution", reasons),
		})
	}
	return challenges
}

func technicalImplementation(fields map[string]json.RawMessage, reasons *[]string) entity.TechnicalImplementation {
	empty := entity.TechnicalImplementation{Technologies: []string{}, KeyPoints: []string{}}
	raw, present := fields["technical_implementation"]
	if !present || string(raw) == "null" {
		return empty
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(raw, &inner); err != nil {
		*reasons = append(*reasons, `field "technical_implementation" is not an object`)
		return empty
	}
	return entity.TechnicalImplementation{
		Approach:     optionalString(inner, "approach", reasons),
		Technologies: stringList(inner, "technologies", reasons),
		KeyPoints:    stringList(inner, "key_points", reasons),
	}
}

// ExtractJSONObject locates a JSON object in raw model output. It tries a
// direct parse first, then falls back to the first balanced {...} span so
// prose-wrapped or fence-wrapped output still parses.
func ExtractJSONObject(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", false
	}
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return trimmed, true
	}

	start := strings.Index(trimmed, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(trimmed); i++ {
		c := trimmed[i]
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
				span := trimmed[start : i+1]
				if json.Valid([]byte(span)) {
					return span, true
				}
				return "", false
			}
		}
	}
	return "", false
}
