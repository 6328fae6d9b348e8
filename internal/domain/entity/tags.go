package entity

import "strings"

// tagKeywords maps input keywords to tags, checked in a fixed order so tag
// synthesis stays deterministic.
var tagKeywords = []struct {
	keyword string
	tag     string
}{
	{"model", "machine-learning"},
	{"api", "api-development"},
	{"deploy", "deployment"},
	{"data", "data-engineering"},
	{"infra", "infrastructure"},
	{"test", "testing"},
}

// SynthesizeTags derives up to MaxTags tags from the raw request when the
// model returned none.
func SynthesizeTags(req GenerationRequest) []string {
	tags := []string{"work-log"}
	text := strings.ToLower(req.Topic + " " + req.CombinedDetails())
	for _, kw := range tagKeywords {
		if len(tags) >= MaxTags {
			break
		}
		if strings.Contains(text, kw.keyword) {
			tags = append(tags, kw.tag)
		}
	}
	return tags
}
