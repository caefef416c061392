package prompt

import (
	"fmt"
	"strings"

	"github.com/handlecraft/handlecraft-backend/internal/handle_suggestions/domain"
)

// SystemInstruction sets the assistant persona and forces a JSON reply.
const SystemInstruction = "You are HandleCraft, an expert branding assistant who crafts memorable, platform-ready social media usernames. Respond strictly with JSON."

// SuggestionSchema is the exact shape the model is asked to return.
const SuggestionSchema = `{ "suggestions": [ { "handle": string, "rationale": string } ] }`

// UserInstruction builds the per-request instruction for a submission.
func UserInstruction(sub domain.SubmissionRequest) string {
	parts := []string{
		fmt.Sprintf("Target name: %q.", sub.Name),
		fmt.Sprintf("Desired tone: %s.", sub.Tone.Description()),
		"Target platform: " + sub.Platform.Guidance(),
		fmt.Sprintf("Produce %d unique username suggestions that respect the character rules and keep the name recognizable.", domain.MaxSuggestions),
		"Return JSON with the schema: " + SuggestionSchema + ".",
	}
	return strings.Join(parts, " ")
}
