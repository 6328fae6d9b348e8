package entity

import (
	"time"

	"github.com/google/uuid"
)

type Stage string

const (
	StageReceived   Stage = "received"
	StageGenerating Stage = "generating"
	StageWriting    Stage = "writing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// GenerationMetrics estimates generation quality from input/output sizes.
type GenerationMetrics struct {
	InputTokens       int     `json:"input_tokens"`
	OutputTokens      int     `json:"output_tokens"`
	ExpansionRatio    float64 `json:"expansion_ratio"`
	HallucinationRisk string  `json:"hallucination_risk"`
	GenerationTime    float64 `json:"generation_time"`
	ConfidenceScore   float64 `json:"confidence_score"`
}

// GenerationResult is the terminal value of one pipeline run. Exactly one of
// Document (success) or Error (failure) is populated.
type GenerationResult struct {
	ID        string              `json:"id" bson:"id"`
	Success   bool                `json:"success" bson:"success"`
	Document  *StructuredDocument `json:"document,omitempty" bson:"document,omitempty"`
	Error     string              `json:"error,omitempty" bson:"error,omitempty"`
	ErrorKind string              `json:"error_kind,omitempty" bson:"error_kind,omitempty"`
	DocURL    string              `json:"doc_url,omitempty" bson:"doc_url,omitempty"`
	Written   bool                `json:"written" bson:"written"`
	Metrics   *GenerationMetrics  `json:"metrics,omitempty" bson:"metrics,omitempty"`
	Duration  time.Duration       `json:"duration" bson:"duration"`
	Timestamp time.Time           `json:"timestamp" bson:"timestamp"`
}

func NewSuccessResult(doc *StructuredDocument, docURL string, m *GenerationMetrics, d time.Duration) *GenerationResult {
	return &GenerationResult{
		ID:        uuid.NewString(),
		Success:   true,
		Document:  doc,
		DocURL:    docURL,
		Written:   true,
		Metrics:   m,
		Duration:  d,
		Timestamp: time.Now().UTC(),
	}
}

func NewFailureResult(err error, d time.Duration) *GenerationResult {
	return &GenerationResult{
		ID:        uuid.NewString(),
		Success:   false,
		Error:     err.Error(),
		ErrorKind: KindOf(err),
		Duration:  d,
		Timestamp: time.Now().UTC(),
	}
}

// NewSalvageResult records a document that was generated but never written,
// so a later retry can re-run the write stage alone.
func NewSalvageResult(doc *StructuredDocument, err error, m *GenerationMetrics, d time.Duration) *GenerationResult {
	r := NewFailureResult(err, d)
	r.Document = doc
	r.Metrics = m
	return r
}

// EstimateMetrics mirrors the expansion-ratio heuristic used to flag likely
// hallucination: the more the model expands the input, the lower the
// confidence.
func EstimateMetrics(req GenerationRequest, doc *StructuredDocument, elapsed time.Duration) *GenerationMetrics {
	inTokens := estimateTokens(req.Topic + " " + req.CombinedDetails())
	var out string
	out += doc.Title + " " + doc.Summary + " " + doc.TaskDescription + " " + doc.TechnicalImplementation.Approach
	for _, a := range doc.Achievements {
		out += " " + a
	}
	for _, c := range doc.Challenges {
		out += " " + c.Issue + " " + c.Resolution
	}
	for _, s := range doc.NextSteps {
		out += " " + s
	}
	outTokens := estimateTokens(out)

	ratio := float64(outTokens) / float64(max(inTokens, 1))
	risk := "low"
	confidence := 0.9
	switch {
	case ratio > 5:
		risk = "high"
		confidence = 0.6
	case ratio > 3:
		risk = "medium"
		confidence = 0.75
	}

	return &GenerationMetrics{
		InputTokens:       inTokens,
		OutputTokens:      outTokens,
		ExpansionRatio:    float64(int(ratio*100)) / 100,
		HallucinationRisk: risk,
		GenerationTime:    float64(int(elapsed.Seconds()*100)) / 100,
		ConfidenceScore:   confidence,
	}
}

func estimateTokens(s string) int {
	words := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			inWord = false
			continue
		}
		if !inWord {
			words++
			inWord = true
		}
	}
	return int(float64(words) * 1.3)
}
