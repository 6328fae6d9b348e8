package entity

const (
	MaxAchievements = 3
	MaxNextSteps    = 2
	MaxTags         = 3
)

type TechnicalImplementation struct {
	Approach     string   `json:"approach,omitempty"`
	Technologies []string `json:"technologies"`
	KeyPoints    []string `json:"key_points"`
}

type Challenge struct {
	Issue      string `json:"issue"`
	Resolution string `json:"resolution,omitempty"`
}

// StructuredDocument is the fixed-schema work-log record produced by the
// generation step. It is never mutated after validation succeeds.
type StructuredDocument struct {
	Title                   string                  `json:"title"`
	Summary                 string                  `json:"summary"`
	TaskDescription         string                  `json:"task_description"`
	Achievements            []string                `json:"achievements"`
	TechnicalImplementation TechnicalImplementation `json:"technical_implementation"`
	Challenges              []Challenge             `json:"challenges"`
	NextSteps               []string                `json:"next_steps"`
	Tags                    []string                `json:"tags"`
	Priority                Priority                `json:"priority"`
}

// Clamp enforces the schema's hard limits on list lengths.
func (d *StructuredDocument) Clamp() {
	if len(d.Achievements) > MaxAchievements {
		d.Achievements = d.Achievements[:MaxAchievements]
	}
	if len(d.NextSteps) > MaxNextSteps {
		d.NextSteps = d.NextSteps[:MaxNextSteps]
	}
	if len(d.Tags) > MaxTags {
		d.Tags = d.Tags[:MaxTags]
	}
}
