package entity

import "strings"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps free-form input to a known priority, defaulting to medium.
func ParsePriority(s string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// GenerationRequest is the immutable intake payload. Topic is the only
// required field.
type GenerationRequest struct {
	Topic         string   `json:"topic"`
	RelatedTopics []string `json:"related_topics,omitempty"`
	Priority      Priority `json:"priority,omitempty"`
	Details       string   `json:"details,omitempty"`
	Challenges    string   `json:"challenges,omitempty"`
}

// Normalize fills defaults without mutating the receiver.
func (r GenerationRequest) Normalize() GenerationRequest {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Priority = ParsePriority(string(r.Priority))
	return r
}

// Validate rejects requests before any outbound call is made.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return ErrInvalidRequest
	}
	return nil
}

// CombinedDetails merges details and related topics into a single context
// string the way the prompt embeds them.
func (r GenerationRequest) CombinedDetails() string {
	combined := r.Details
	if len(r.RelatedTopics) > 0 {
		related := "Related topics: " + strings.Join(r.RelatedTopics, ", ")
		if combined != "" {
			combined += " | " + related
		} else {
			combined = related
		}
	}
	return combined
}
