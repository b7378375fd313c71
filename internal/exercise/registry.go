package exercise

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

var (
	// ErrMalformedJSON indicates the payload is not valid JSON at all. This is
	// a distinct failure mode from a schema mismatch.
	ErrMalformedJSON = errors.New("malformed JSON content")

	// ErrUnknownType indicates the claimed exercise type is not registered.
	ErrUnknownType = errors.New("unknown exercise type")
)

// FieldError describes a single failed constraint.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ValidationError aggregates the field-level failures for one payload.
type ValidationError struct {
	ExerciseType domain.ExerciseType
	Fields       []FieldError
}

func (e *ValidationError) Error() string {
	reasons := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		reasons[i] = f.Error()
	}
	return fmt.Sprintf("invalid %s content: %s", e.ExerciseType, strings.Join(reasons, "; "))
}

// Registry validates untyped JSON payloads against the closed set of exercise
// content shapes. It dispatches on the claimed type tag and applies that
// variant's field constraints; no coercion or normalization is performed.
type Registry struct{}

// NewRegistry creates a content schema registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Validate checks raw against the shape claimed by typ and returns the typed
// payload on success. Errors are either ErrMalformedJSON, ErrUnknownType, or
// a *ValidationError carrying per-field detail.
func (r *Registry) Validate(typ domain.ExerciseType, raw json.RawMessage) (Content, error) {
	if !json.Valid(raw) {
		return nil, ErrMalformedJSON
	}

	switch typ {
	case domain.TypeMultipleChoice:
		return validate(typ, raw, checkMultipleChoice)
	case domain.TypeCodeCompletion:
		return validate(typ, raw, checkCodeCompletion)
	case domain.TypeMatching:
		return validate(typ, raw, checkMatching)
	case domain.TypeSequencing:
		return validate(typ, raw, checkSequencing)
	case domain.TypeFillInBlank:
		return validate(typ, raw, checkFillInBlank)
	case domain.TypeDiagramQuiz:
		return validate(typ, raw, checkDiagramQuiz)
	case domain.TypeGuessOutput:
		return validate(typ, raw, checkGuessOutput)
	case domain.TypeSpotTheBug:
		return validate(typ, raw, checkSpotTheBug)
	case domain.TypeAcronymChallenge:
		return validate(typ, raw, checkAcronymChallenge)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
}

// validate unmarshals raw into T and applies the variant's constraint check.
func validate[T Content](typ domain.ExerciseType, raw json.RawMessage, check func(T) []FieldError) (Content, error) {
	var payload T
	if err := json.Unmarshal(raw, &payload); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "(root)"
			}
			return nil, &ValidationError{
				ExerciseType: typ,
				Fields: []FieldError{{
					Field:  field,
					Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
				}},
			}
		}
		return nil, ErrMalformedJSON
	}

	if fields := check(payload); len(fields) > 0 {
		return nil, &ValidationError{ExerciseType: typ, Fields: fields}
	}
	return payload, nil
}

func checkMultipleChoice(c MultipleChoice) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "question", c.Question)
	errs = requireLen(errs, "options", len(c.Options), 2, 6)
	errs = requireIndex(errs, "correctIndex", c.CorrectIndex, len(c.Options))
	return errs
}

func checkCodeCompletion(c CodeCompletion) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "prompt", c.Prompt)
	errs = requireString(errs, "codeTemplate", c.CodeTemplate)
	if len(c.Blanks) == 0 {
		errs = append(errs, FieldError{Field: "blanks", Reason: "at least one blank required"})
	}
	for i, b := range c.Blanks {
		errs = requireString(errs, fmt.Sprintf("blanks[%d].placeholder", i), b.Placeholder)
		errs = requireString(errs, fmt.Sprintf("blanks[%d].answer", i), b.Answer)
	}
	return errs
}

func checkMatching(c Matching) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "prompt", c.Prompt)
	errs = requireLen(errs, "pairs", len(c.Pairs), 2, 8)
	for i, p := range c.Pairs {
		errs = requireString(errs, fmt.Sprintf("pairs[%d].left", i), p.Left)
		errs = requireString(errs, fmt.Sprintf("pairs[%d].right", i), p.Right)
	}
	return errs
}

func checkSequencing(c Sequencing) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "prompt", c.Prompt)
	errs = requireLen(errs, "items", len(c.Items), 2, 10)
	return errs
}

func checkFillInBlank(c FillInBlank) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "sentence", c.Sentence)
	if len(c.Blanks) == 0 {
		errs = append(errs, FieldError{Field: "blanks", Reason: "at least one blank required"})
	}
	for i, b := range c.Blanks {
		if b.Position < 0 {
			errs = append(errs, FieldError{
				Field:  fmt.Sprintf("blanks[%d].position", i),
				Reason: "must not be negative",
			})
		}
		errs = requireString(errs, fmt.Sprintf("blanks[%d].answer", i), b.Answer)
	}
	return errs
}

func checkDiagramQuiz(c DiagramQuiz) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "diagram", c.Diagram)
	if !c.DiagramType.Valid() {
		errs = append(errs, FieldError{
			Field:  "diagramType",
			Reason: "must be one of architecture, flowchart, sequence, component",
		})
	}
	if len(c.Questions) == 0 {
		errs = append(errs, FieldError{Field: "questions", Reason: "at least one question required"})
	}
	for i, q := range c.Questions {
		errs = requireString(errs, fmt.Sprintf("questions[%d].question", i), q.Question)
		errs = requireString(errs, fmt.Sprintf("questions[%d].answer", i), q.Answer)
	}
	return errs
}

func checkGuessOutput(c GuessOutput) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "code", c.Code)
	errs = requireString(errs, "language", c.Language)
	errs = requireLen(errs, "options", len(c.Options), 2, 6)
	errs = requireIndex(errs, "correctIndex", c.CorrectIndex, len(c.Options))
	return errs
}

func checkSpotTheBug(c SpotTheBug) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "code", c.Code)
	errs = requireString(errs, "language", c.Language)
	if c.BugLine < 1 {
		errs = append(errs, FieldError{Field: "bugLine", Reason: "must be a positive line number"})
	}
	errs = requireString(errs, "bugDescription", c.BugDescription)
	errs = requireString(errs, "fixedCode", c.FixedCode)
	return errs
}

func checkAcronymChallenge(c AcronymChallenge) []FieldError {
	var errs []FieldError
	errs = requireString(errs, "acronym", c.Acronym)
	errs = requireString(errs, "fullForm", c.FullForm)
	if c.Options != nil {
		errs = requireLen(errs, "options", len(c.Options), 2, 6)
	}
	if c.TimeLimitSeconds < 0 {
		errs = append(errs, FieldError{Field: "timeLimitSeconds", Reason: "must not be negative"})
	}
	return errs
}

func requireString(errs []FieldError, field, value string) []FieldError {
	if strings.TrimSpace(value) == "" {
		return append(errs, FieldError{Field: field, Reason: "required"})
	}
	return errs
}

func requireLen(errs []FieldError, field string, n, min, max int) []FieldError {
	if n < min || n > max {
		return append(errs, FieldError{
			Field:  field,
			Reason: fmt.Sprintf("must contain between %d and %d entries, got %d", min, max, n),
		})
	}
	return errs
}

func requireIndex(errs []FieldError, field string, idx, length int) []FieldError {
	if idx < 0 {
		return append(errs, FieldError{Field: field, Reason: "must not be negative"})
	}
	if length > 0 && idx >= length {
		return append(errs, FieldError{
			Field:  field,
			Reason: fmt.Sprintf("out of range for %d options", length),
		})
	}
	return errs
}
