package validator

import "docify/internal/domain/entity"

// BuildFallbackDocument synthesizes a minimal valid document from the raw
// request alone. Pure and deterministic: same request, same document. Used
// when the model's output fails schema validation, so the pipeline never
// fails purely because the model's prose did not match the schema.
func BuildFallbackDocument(req entity.GenerationRequest) *entity.StructuredDocument {
	summary := req.Details
	if req.Challenges != "" {
		if summary != "" {
			summary += " Challenges: " + req.Challenges
		} else {
			summary = "Challenges: " + req.Challenges
		}
	}
	if summary == "" {
		summary = "Worked on " + req.Topic + "."
	}

	challenges := []entity.Challenge{}
	if req.Challenges != "" {
		challenges = append(challenges, entity.Challenge{Issue: req.Challenges})
	}

	doc := &entity.StructuredDocument{
		Title:           "Work Log: " + req.Topic,
		Summary:         summary,
		TaskDescription: req.Topic,
		Achievements:    []string{},
		TechnicalImplementation: entity.TechnicalImplementation{
			Technologies: append([]string{}, req.RelatedTopics...),
			KeyPoints:    []string{},
		},
		Challenges: challenges,
		NextSteps:  []string{},
		Tags:       entity.SynthesizeTags(req),
		Priority:   req.Priority,
	}
	doc.Clamp()
	return doc
}
