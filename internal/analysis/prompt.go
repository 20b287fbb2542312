package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

const responseShape = `{"name": string, "calories": number, "protein_g": number, "carbs_g": number, ` +
	`"fats_g": number, "fiber_g": number, "sugar_g": number, "sodium_mg": number, ` +
	`"confidence": number between 0 and 1, "ingredients": [string]}`

func buildAnalyzePrompt(req AnalyzeRequest) string {
	var b strings.Builder
	b.WriteString("You are a nutrition assistant. Identify the meal in the photo and estimate its nutrition for the visible portion.\n")
	fmt.Fprintf(&b, "Write the meal name and ingredients in language %q.\n", languageOrDefault(req.Language))
	if correction := strings.TrimSpace(req.Correction); correction != "" {
		fmt.Fprintf(&b, "The user adds this correction, which takes precedence over the photo: %s\n", correction)
	}
	b.WriteString("Reply with a single JSON object and nothing else, shaped as ")
	b.WriteString(responseShape)
	return b.String()
}

func buildRevisePrompt(req ReviseRequest) (string, error) {
	previous, errMarshal := json.Marshal(req.Previous)
	if errMarshal != nil {
		return "", fmt.Errorf("marshal previous estimate: %w", errMarshal)
	}
	var b strings.Builder
	b.WriteString("You are a nutrition assistant. Revise this meal estimate using the user's correction.\n")
	fmt.Fprintf(&b, "Previous estimate: %s\n", previous)
	fmt.Fprintf(&b, "Correction: %s\n", strings.TrimSpace(req.Correction))
	fmt.Fprintf(&b, "Write the meal name and ingredients in language %q.\n", languageOrDefault(req.Language))
	b.WriteString("Reply with a single JSON object and nothing else, shaped as ")
	b.WriteString(responseShape)
	return b.String(), nil
}

// cleanModelJSON strips markdown fences and surrounding prose from a model reply.
func cleanModelJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	}
	return text
}
