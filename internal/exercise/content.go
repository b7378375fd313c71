// Package exercise defines the closed set of exercise content shapes and the
// registry that validates untyped JSON payloads against them.
package exercise

import "github.com/felixgeelhaar/codequest/internal/domain"

// Content is the tagged union of validated exercise payloads. Downstream code
// receives one of the concrete variants below, never untyped JSON.
type Content interface {
	Type() domain.ExerciseType
}

// MultipleChoice is a question with 2-6 options and one correct answer.
type MultipleChoice struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

func (MultipleChoice) Type() domain.ExerciseType { return domain.TypeMultipleChoice }

// CompletionBlank is one hole in a code-completion template.
type CompletionBlank struct {
	Placeholder string   `json:"placeholder"`
	Answer      string   `json:"answer"`
	Hints       []string `json:"hints,omitempty"`
}

// CodeCompletion asks the learner to fill ___BLANK___ markers in a template.
type CodeCompletion struct {
	Prompt       string            `json:"prompt"`
	CodeTemplate string            `json:"codeTemplate"`
	Blanks       []CompletionBlank `json:"blanks"`
	Language     string            `json:"language,omitempty"`
}

func (CodeCompletion) Type() domain.ExerciseType { return domain.TypeCodeCompletion }

// MatchingPair is one left/right pairing.
type MatchingPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Matching asks the learner to connect 2-8 pairs.
type Matching struct {
	Prompt string         `json:"prompt"`
	Pairs  []MatchingPair `json:"pairs"`
}

func (Matching) Type() domain.ExerciseType { return domain.TypeMatching }

// Sequencing asks the learner to restore 2-10 items to their canonical order.
type Sequencing struct {
	Prompt      string   `json:"prompt"`
	Items       []string `json:"items"` // stored in correct order
	Explanation string   `json:"explanation,omitempty"`
}

func (Sequencing) Type() domain.ExerciseType { return domain.TypeSequencing }

// SentenceBlank is one hole in a fill-in-blank sentence.
type SentenceBlank struct {
	Position           int      `json:"position"`
	Answer             string   `json:"answer"`
	AcceptAlternatives []string `json:"acceptAlternatives,omitempty"`
}

// FillInBlank asks the learner to complete a sentence with _____ markers.
type FillInBlank struct {
	Sentence string          `json:"sentence"`
	Blanks   []SentenceBlank `json:"blanks"`
}

func (FillInBlank) Type() domain.ExerciseType { return domain.TypeFillInBlank }

// DiagramKind enumerates supported diagram flavors.
type DiagramKind string

const (
	DiagramArchitecture DiagramKind = "architecture"
	DiagramFlowchart    DiagramKind = "flowchart"
	DiagramSequence     DiagramKind = "sequence"
	DiagramComponent    DiagramKind = "component"
)

// Valid reports whether k is a known diagram kind.
func (k DiagramKind) Valid() bool {
	switch k {
	case DiagramArchitecture, DiagramFlowchart, DiagramSequence, DiagramComponent:
		return true
	}
	return false
}

// DiagramQuestion is one question about a diagram.
type DiagramQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
}

// DiagramQuiz presents a diagram (SVG or ASCII art) with questions about it.
type DiagramQuiz struct {
	Diagram     string            `json:"diagram"`
	DiagramType DiagramKind       `json:"diagramType"`
	Questions   []DiagramQuestion `json:"questions"`
}

func (DiagramQuiz) Type() domain.ExerciseType { return domain.TypeDiagramQuiz }

// GuessOutput asks what a code snippet prints, multiple-choice style.
type GuessOutput struct {
	Code         string   `json:"code"`
	Language     string   `json:"language"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Explanation  string   `json:"explanation,omitempty"`
}

func (GuessOutput) Type() domain.ExerciseType { return domain.TypeGuessOutput }

// SpotTheBug asks the learner to find a known bug in a snippet.
type SpotTheBug struct {
	Code           string   `json:"code"`
	Language       string   `json:"language"`
	BugLine        int      `json:"bugLine"` // 1-based
	BugDescription string   `json:"bugDescription"`
	FixedCode      string   `json:"fixedCode"`
	Hints          []string `json:"hints,omitempty"`
}

func (SpotTheBug) Type() domain.ExerciseType { return domain.TypeSpotTheBug }

// AcronymChallenge asks for the full form of an acronym, optionally timed and
// optionally multiple-choice.
type AcronymChallenge struct {
	Acronym          string   `json:"acronym"`
	FullForm         string   `json:"fullForm"`
	Options          []string `json:"options,omitempty"`
	Category         string   `json:"category,omitempty"`
	TimeLimitSeconds int      `json:"timeLimitSeconds,omitempty"`
}

func (AcronymChallenge) Type() domain.ExerciseType { return domain.TypeAcronymChallenge }
