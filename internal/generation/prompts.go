package generation

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

// systemPrompt instructs the model to emit a bare JSON array of exercise
// objects. All generation features share it; only the user prompt varies.
const systemPrompt = `You are an exercise generator for CodeQuest, a gamified coding learning app.
Generate exercises from the provided content. Return ONLY valid JSON, no markdown.

Exercise types available:
1. multiple_choice - question + options + correctIndex + explanation
2. code_completion - prompt + codeTemplate (with ___BLANK___) + blanks array
3. matching - prompt + pairs [{left, right}]
4. sequencing - prompt + items (correct order)
5. fill_in_blank - sentence (with _____) + blanks [{position, answer}]
6. diagram_quiz - diagram + diagramType + questions [{question, answer}]
7. guess_output - code + language + options + correctIndex + explanation
8. spot_the_bug - code + language + bugLine + bugDescription + fixedCode
9. acronym_challenge - acronym + fullForm + options (optional)

Output format: JSON array of exercise objects, each with:
{ "type": "<exercise_type>", "content": { ...type-specific fields } }

Generate 3-5 varied exercises. Mix different types. Make questions educational and fun.
Focus on practical understanding, not trivia.`

// enhanceSystemPrompt drives note enhancement, which returns plain text
// rather than JSON.
const enhanceSystemPrompt = `You are a study assistant for CodeQuest, a coding learning app.
A student will give you their raw learning notes. Expand them into a clear,
well-structured explanation: fix inaccuracies, fill gaps, and add one short
practical example where it helps. Return plain markdown text, no JSON.`

// Generation call bounds, fixed per feature.
const (
	generateTemperature = 0.7
	generateMaxTokens   = 2048
	enhanceMaxTokens    = 1024
)

// Multi-note synthesis bounds.
const (
	maxQuizNotes     = 5
	maxQuizExercises = 8
)

func buildGeneratePrompt(text string) string {
	return fmt.Sprintf("Generate coding exercises from this content:\n\n%s", text)
}

func buildNotePrompt(noteContent string) string {
	return fmt.Sprintf("A student wrote these learning notes. Generate exercises to help them review and retain the concepts:\n\n%s", noteContent)
}

func buildTopicPrompt(topic string) string {
	return fmt.Sprintf("A student wants to learn about: %s\n\nGenerate beginner-friendly coding exercises that teach this topic step by step.", topic)
}

// buildMultiNotePrompt concatenates up to maxQuizNotes notes and caps the
// requested exercise count at min(2*N+1, maxQuizExercises).
func buildMultiNotePrompt(notes []*domain.Note) (prompt string, count int) {
	count = 2*len(notes) + 1
	if count > maxQuizExercises {
		count = maxQuizExercises
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "A student wants a review quiz across their notes. Generate at most %d exercises covering all of them:\n", count)
	for _, note := range notes {
		fmt.Fprintf(&sb, "\n## %s\n%s\n", note.Title, note.Content)
	}
	return sb.String(), count
}

func buildEnhancePrompt(title, content string) string {
	return fmt.Sprintf("Note title: %s\n\nNote content:\n%s", title, content)
}
