package entity

import "strings"

type Prompt struct {
	ID   string
	Text string
}

// schemaInstructions describes the required output shape. Kept as a single
// constant so prompt rendering stays byte-stable across invocations.
const schemaInstructions = `Respond with a single JSON object and nothing else. No prose, no markdown fences.
The object must have exactly this shape:
{
  "title": string,
  "summary": string (up to 4 lines),
  "task_description": string (from user input only),
  "achievements": [string] (max 3, only factual),
  "technical_implementation": {"approach": string, "technologies": [string], "key_points": [string] (max 3)},
  "challenges": [{"issue": string, "resolution": string}],
  "next_steps": [string] (max 2),
  "tags": [string],
  "priority": "low" | "medium" | "high"
}
Use empty strings and empty arrays for anything the input does not support. Never invent facts.`

var lowPrompt = Prompt{
	ID: "low",
	Text: `You are a minimal documentation assistant.
Generate BRIEF work logs. Use ONLY information from user input.
- Summary: up to 4 lines
- Achievements: 1-2 items max
- Challenges: only if explicitly mentioned or user-provided
- NO technical details unless provided
` + schemaInstructions,
}

var mediumPrompt = Prompt{
	ID: "medium",
	Text: `You are a documentation assistant.
Generate standard work logs. Stay close to user input.
- Summary: up to 4 lines describing work and progress
- Achievements: 2-3 items from actual work
- Challenges: include user-provided challenges or those mentioned
- Technical details: only what user provided
` + schemaInstructions,
}

var highPrompt = Prompt{
	ID: "high",
	Text: `You are a detailed documentation assistant.
Generate comprehensive logs but stay factual.
- Summary: up to 4 lines with detailed overview
- Achievements: up to 3 items
- Include technical details if provided
- Challenges: expand on user-provided challenges with context
` + schemaInstructions,
}

func PromptFor(p Priority) Prompt {
	switch p {
	case PriorityLow:
		return lowPrompt
	case PriorityHigh:
		return highPrompt
	default:
		return mediumPrompt
	}
}

// BuildPrompt renders the request into the full instruction text sent to the
// model. Rendering is deterministic: no timestamps, no randomness, and every
// non-empty input field appears verbatim. User input is embedded as data
// below the instruction block, never spliced into the instructions.
func BuildPrompt(req GenerationRequest) string {
	p := PromptFor(req.Priority)

	details := req.CombinedDetails()
	if details == "" {
		details = "Not provided"
	}
	challenges := req.Challenges
	if challenges == "" {
		challenges = "No challenges mentioned"
	}

	var sb strings.Builder
	sb.WriteString(p.Text)
	sb.WriteString("\n\nTask: ")
	sb.WriteString(req.Topic)
	sb.WriteString("\nDetails: ")
	sb.WriteString(details)
	sb.WriteString("\nChallenges: ")
	sb.WriteString(challenges)
	sb.WriteString("\nPriority: ")
	sb.WriteString(strings.ToUpper(string(req.Priority)))
	return sb.String()
}
