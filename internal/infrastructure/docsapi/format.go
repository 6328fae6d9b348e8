package docsapi

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"docify/internal/domain/entity"
)

// Request is the subset of the batchUpdate request union this adapter emits.
type Request struct {
	InsertText      *InsertTextRequest      `json:"insertText,omitempty"`
	UpdateTextStyle *UpdateTextStyleRequest `json:"updateTextStyle,omitempty"`
}

type InsertTextRequest struct {
	Location Location `json:"location"`
	Text     string   `json:"text"`
}

type UpdateTextStyleRequest struct {
	Range     Range     `json:"range"`
	TextStyle TextStyle `json:"textStyle"`
	Fields    string    `json:"fields"`
}

type Location struct {
	Index int64 `json:"index"`
}

type Range struct {
	StartIndex int64 `json:"startIndex"`
	EndIndex   int64 `json:"endIndex"`
}

type TextStyle struct {
	Bold     bool      `json:"bold"`
	FontSize *FontSize `json:"fontSize,omitempty"`
}

type FontSize struct {
	Magnitude int    `json:"magnitude"`
	Unit      string `json:"unit"`
}

const (
	titleFontPt  = 18
	headerFontPt = 12
)

// headerRange marks a span to bold, in UTF-16 code units relative to the
// start of the entry. The Docs API counts indexes in UTF-16 units, not bytes
// or runes.
type headerRange struct {
	start int64
	end   int64
}

type entryBuilder struct {
	text    strings.Builder
	offset  int64
	headers []headerRange
}

func utf16Len(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}

func (b *entryBuilder) write(s string) {
	b.text.WriteString(s)
	b.offset += utf16Len(s)
}

// writeHeader writes a section header line and records its bold range,
// excluding the surrounding newlines.
func (b *entryBuilder) writeHeader(name string) {
	b.write("\n")
	start := b.offset
	b.write(name)
	b.headers = append(b.headers, headerRange{start: start, end: b.offset})
	b.write("\n")
}

// BuildEntryRequests renders the document as one text insertion at the given
// index plus style updates for the title and section headers.
func BuildEntryRequests(index int64, doc *entity.StructuredDocument, m *entity.GenerationMetrics, ts time.Time) []Request {
	b := &entryBuilder{}

	titleStart := b.offset
	b.write(doc.Title)
	titleEnd := b.offset
	b.write("\n")

	b.write(ts.Format("2006-01-02 15:04:05") + " | Priority: " + strings.ToUpper(string(doc.Priority)) + "\n")

	switch doc.Priority {
	case entity.PriorityLow:
		buildLowSections(b, doc)
	case entity.PriorityHigh:
		buildHighSections(b, doc)
	default:
		buildMediumSections(b, doc)
	}

	if m != nil {
		writeMetricsFooter(b, m)
	}
	b.write("\n")

	requests := []Request{
		{InsertText: &InsertTextRequest{
			Location: Location{Index: index},
			Text:     b.text.String(),
		}},
		{UpdateTextStyle: &UpdateTextStyleRequest{
			Range:     Range{StartIndex: index + titleStart, EndIndex: index + titleEnd},
			TextStyle: TextStyle{Bold: true, FontSize: &FontSize{Magnitude: titleFontPt, Unit: "pt"}},
			Fields:    "bold,fontSize",
		}},
	}
	for _, h := range b.headers {
		requests = append(requests, Request{UpdateTextStyle: &UpdateTextStyleRequest{
			Range:     Range{StartIndex: index + h.start, EndIndex: index + h.end},
			TextStyle: TextStyle{Bold: true, FontSize: &FontSize{Magnitude: headerFontPt, Unit: "pt"}},
			Fields:    "bold,fontSize",
		}})
	}
	return requests
}

func buildLowSections(b *entryBuilder, doc *entity.StructuredDocument) {
	b.writeHeader("SUMMARY")
	b.write(doc.Summary + "\n")

	if doc.TaskDescription != "" {
		b.writeHeader("COMPLETED TASK")
		b.write(doc.TaskDescription + "\n")
	}

	if len(doc.Achievements) > 0 {
		b.writeHeader("ACHIEVEMENTS")
		for _, a := range firstN(doc.Achievements, 2) {
			b.write("  - " + a + "\n")
		}
	}

	writeTags(b, doc)
}

func buildMediumSections(b *entryBuilder, doc *entity.StructuredDocument) {
	b.writeHeader("SUMMARY")
	b.write(doc.Summary + "\n")

	b.writeHeader("TASK DESCRIPTION")
	b.write(orDefault(doc.TaskDescription, "No description") + "\n")

	b.writeHeader("ACHIEVEMENTS")
	for _, a := range doc.Achievements {
		b.write("  - " + a + "\n")
	}

	tech := doc.TechnicalImplementation
	if tech.Approach != "" || len(tech.Technologies) > 0 || len(tech.KeyPoints) > 0 {
		b.writeHeader("TECHNICAL IMPLEMENTATION")
		if tech.Approach != "" {
			b.write("Approach: " + tech.Approach + "\n")
		}
		if len(tech.Technologies) > 0 {
			b.write("Technologies: " + strings.Join(tech.Technologies, ", ") + "\n")
		}
		for _, p := range tech.KeyPoints {
			b.write("  - " + p + "\n")
		}
	}

	if len(doc.Challenges) > 0 {
		b.writeHeader("CHALLENGES")
		for _, ch := range firstChallenges(doc.Challenges, 2) {
			b.write("Issue: " + ch.Issue + "\n")
			if ch.Resolution != "" {
				b.write("  Resolution: " + ch.Resolution + "\n")
			}
		}
	}

	if len(doc.NextSteps) > 0 {
		b.writeHeader("NEXT STEPS")
		for _, s := range doc.NextSteps {
			b.write("  - " + s + "\n")
		}
	}

	writeTags(b, doc)
}

func buildHighSections(b *entryBuilder, doc *entity.StructuredDocument) {
	b.writeHeader("EXECUTIVE SUMMARY")
	b.write(doc.Summary + "\n")

	b.writeHeader("DETAILED TASK DESCRIPTION")
	b.write(orDefault(doc.TaskDescription, "No description") + "\n")

	b.writeHeader("KEY ACHIEVEMENTS")
	for _, a := range doc.Achievements {
		b.write("  - " + a + "\n")
	}

	tech := doc.TechnicalImplementation
	if tech.Approach != "" || len(tech.Technologies) > 0 || len(tech.KeyPoints) > 0 {
		b.writeHeader("TECHNICAL IMPLEMENTATION")
		if tech.Approach != "" {
			b.write("Approach:\n  " + tech.Approach + "\n")
		}
		if len(tech.Technologies) > 0 {
			b.write("Technologies: " + strings.Join(tech.Technologies, ", ") + "\n")
		}
		if len(tech.KeyPoints) > 0 {
			b.write("Key Points:\n")
			for _, p := range tech.KeyPoints {
				b.write("  - " + p + "\n")
			}
		}
	}

	if len(doc.Challenges) > 0 {
		b.writeHeader("CHALLENGES & SOLUTIONS")
		for _, ch := range doc.Challenges {
			b.write("Challenge:\n  " + ch.Issue + "\n")
			if ch.Resolution != "" {
				b.write("Solution:\n  " + ch.Resolution + "\n")
			}
		}
	}

	if len(doc.NextSteps) > 0 {
		b.writeHeader("NEXT STEPS & RECOMMENDATIONS")
		for _, s := range doc.NextSteps {
			b.write("  - " + s + "\n")
		}
	}

	writeTags(b, doc)
}

func writeTags(b *entryBuilder, doc *entity.StructuredDocument) {
	if len(doc.Tags) == 0 {
		return
	}
	b.writeHeader("TAGS")
	b.write(strings.Join(doc.Tags, ", ") + "\n")
}

func writeMetricsFooter(b *entryBuilder, m *entity.GenerationMetrics) {
	b.writeHeader("GENERATION METRICS")
	b.write(fmt.Sprintf("Confidence: %.0f%%\n", m.ConfidenceScore*100))
	b.write(fmt.Sprintf("Generation Time: %.2fs\n", m.GenerationTime))
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func firstN(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func firstChallenges(list []entity.Challenge, n int) []entity.Challenge {
	if len(list) > n {
		return list[:n]
	}
	return list
}
