package exercise

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/felixgeelhaar/codequest/internal/domain"
)

func TestRegistry_Validate_MultipleChoice(t *testing.T) {
	r := NewRegistry()

	t.Run("valid payload accepted", func(t *testing.T) {
		raw := json.RawMessage(`{
			"question": "What does Go's defer do?",
			"options": ["a", "b", "c", "d", "e", "f"],
			"correctIndex": 5,
			"explanation": "runs at function exit"
		}`)

		content, err := r.Validate(domain.TypeMultipleChoice, raw)
		if err != nil {
			t.Fatalf("Validate() error: %v", err)
		}
		mc, ok := content.(MultipleChoice)
		if !ok {
			t.Fatalf("Validate() returned %T, want MultipleChoice", content)
		}
		if mc.CorrectIndex != 5 {
			t.Errorf("CorrectIndex = %d, want 5", mc.CorrectIndex)
		}
	})

	t.Run("too few options rejected", func(t *testing.T) {
		raw := json.RawMessage(`{"question": "q", "options": ["only one"], "correctIndex": 0}`)

		_, err := r.Validate(domain.TypeMultipleChoice, raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Validate() error = %v, want *ValidationError", err)
		}
		if !hasField(vErr, "options") {
			t.Errorf("expected field error for options, got %v", vErr.Fields)
		}
	})

	t.Run("negative correctIndex rejected", func(t *testing.T) {
		raw := json.RawMessage(`{"question": "q", "options": ["a", "b"], "correctIndex": -1}`)

		_, err := r.Validate(domain.TypeMultipleChoice, raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Validate() error = %v, want *ValidationError", err)
		}
		if !hasField(vErr, "correctIndex") {
			t.Errorf("expected field error for correctIndex, got %v", vErr.Fields)
		}
	})

	t.Run("missing question rejected", func(t *testing.T) {
		raw := json.RawMessage(`{"options": ["a", "b"], "correctIndex": 0}`)

		_, err := r.Validate(domain.TypeMultipleChoice, raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Validate() error = %v, want *ValidationError", err)
		}
		if !hasField(vErr, "question") {
			t.Errorf("expected field error for question, got %v", vErr.Fields)
		}
	})

	t.Run("wrong field type reports the field", func(t *testing.T) {
		raw := json.RawMessage(`{"question": "q", "options": "not-an-array", "correctIndex": 0}`)

		_, err := r.Validate(domain.TypeMultipleChoice, raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Validate() error = %v, want *ValidationError", err)
		}
	})
}

func TestRegistry_Validate_MalformedJSON(t *testing.T) {
	r := NewRegistry()

	_, err := r.Validate(domain.TypeMultipleChoice, json.RawMessage(`{not json`))
	if !errors.Is(err, ErrMalformedJSON) {
		t.Errorf("Validate() error = %v, want ErrMalformedJSON", err)
	}

	// Malformed JSON must be distinguishable from a schema mismatch
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		t.Error("malformed JSON should not produce a ValidationError")
	}
}

func TestRegistry_Validate_UnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.Validate(domain.ExerciseType("word_search"), json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownType) {
		t.Errorf("Validate() error = %v, want ErrUnknownType", err)
	}
}

func TestRegistry_Validate_CodeCompletion(t *testing.T) {
	r := NewRegistry()

	t.Run("valid", func(t *testing.T) {
		raw := json.RawMessage(`{
			"prompt": "Complete the loop",
			"codeTemplate": "for i := 0; i < ___BLANK___; i++ {}",
			"blanks": [{"placeholder": "___BLANK___", "answer": "10", "hints": ["think bounds"]}],
			"language": "go"
		}`)
		if _, err := r.Validate(domain.TypeCodeCompletion, raw); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	t.Run("blank missing answer rejected", func(t *testing.T) {
		raw := json.RawMessage(`{
			"prompt": "p",
			"codeTemplate": "x = ___BLANK___",
			"blanks": [{"placeholder": "___BLANK___"}]
		}`)
		_, err := r.Validate(domain.TypeCodeCompletion, raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Validate() error = %v, want *ValidationError", err)
		}
		if !hasField(vErr, "blanks[0].answer") {
			t.Errorf("expected field error for blanks[0].answer, got %v", vErr.Fields)
		}
	})
}

func TestRegistry_Validate_Matching(t *testing.T) {
	r := NewRegistry()

	t.Run("valid", func(t *testing.T) {
		raw := json.RawMessage(`{
			"prompt": "Match protocol to port",
			"pairs": [{"left": "HTTP", "right": "80"}, {"left": "HTTPS", "right": "443"}]
		}`)
		if _, err := r.Validate(domain.TypeMatching, raw); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	t.Run("too many pairs rejected", func(t *testing.T) {
		pairs := make([]MatchingPair, 9)
		for i := range pairs {
			pairs[i] = MatchingPair{Left: "l", Right: "r"}
		}
		raw, _ := json.Marshal(Matching{Prompt: "p", Pairs: pairs})

		_, err := r.Validate(domain.TypeMatching, raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Validate() error = %v, want *ValidationError", err)
		}
	})
}

func TestRegistry_Validate_Sequencing(t *testing.T) {
	r := NewRegistry()

	raw := json.RawMessage(`{"prompt": "Order the steps", "items": ["parse", "validate", "persist"]}`)
	if _, err := r.Validate(domain.TypeSequencing, raw); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	raw = json.RawMessage(`{"prompt": "p", "items": ["just one"]}`)
	if _, err := r.Validate(domain.TypeSequencing, raw); err == nil {
		t.Error("Validate() expected error for single item")
	}
}

func TestRegistry_Validate_FillInBlank(t *testing.T) {
	r := NewRegistry()

	raw := json.RawMessage(`{
		"sentence": "_____ stands for Application Programming Interface",
		"blanks": [{"position": 0, "answer": "API", "acceptAlternatives": ["api"]}]
	}`)
	if _, err := r.Validate(domain.TypeFillInBlank, raw); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	raw = json.RawMessage(`{"sentence": "no blanks here", "blanks": []}`)
	if _, err := r.Validate(domain.TypeFillInBlank, raw); err == nil {
		t.Error("Validate() expected error for empty blanks")
	}
}

func TestRegistry_Validate_DiagramQuiz(t *testing.T) {
	r := NewRegistry()

	t.Run("valid", func(t *testing.T) {
		raw := json.RawMessage(`{
			"diagram": "client -> api -> db",
			"diagramType": "architecture",
			"questions": [{"question": "What sits between client and db?", "answer": "api"}]
		}`)
		if _, err := r.Validate(domain.TypeDiagramQuiz, raw); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	t.Run("unknown diagram kind rejected", func(t *testing.T) {
		raw := json.RawMessage(`{
			"diagram": "d",
			"diagramType": "mindmap",
			"questions": [{"question": "q", "answer": "a"}]
		}`)
		_, err := r.Validate(domain.TypeDiagramQuiz, raw)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("Validate() error = %v, want *ValidationError", err)
		}
		if !hasField(vErr, "diagramType") {
			t.Errorf("expected field error for diagramType, got %v", vErr.Fields)
		}
	})
}

func TestRegistry_Validate_GuessOutput(t *testing.T) {
	r := NewRegistry()

	raw := json.RawMessage(`{
		"code": "fmt.Println(1 / 2)",
		"language": "go",
		"options": ["0", "0.5", "1"],
		"correctIndex": 0
	}`)
	if _, err := r.Validate(domain.TypeGuessOutput, raw); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	raw = json.RawMessage(`{"code": "c", "language": "go", "options": ["a", "b"], "correctIndex": 5}`)
	if _, err := r.Validate(domain.TypeGuessOutput, raw); err == nil {
		t.Error("Validate() expected error for out-of-range correctIndex")
	}
}

func TestRegistry_Validate_SpotTheBug(t *testing.T) {
	r := NewRegistry()

	raw := json.RawMessage(`{
		"code": "if x = 1 {}",
		"language": "go",
		"bugLine": 1,
		"bugDescription": "assignment instead of comparison",
		"fixedCode": "if x == 1 {}"
	}`)
	if _, err := r.Validate(domain.TypeSpotTheBug, raw); err != nil {
		t.Errorf("Validate() error: %v", err)
	}

	raw = json.RawMessage(`{"code": "c", "language": "go", "bugLine": 0, "bugDescription": "d", "fixedCode": "f"}`)
	if _, err := r.Validate(domain.TypeSpotTheBug, raw); err == nil {
		t.Error("Validate() expected error for bugLine 0")
	}
}

func TestRegistry_Validate_AcronymChallenge(t *testing.T) {
	r := NewRegistry()

	t.Run("options are optional", func(t *testing.T) {
		raw := json.RawMessage(`{"acronym": "CRUD", "fullForm": "Create Read Update Delete"}`)
		if _, err := r.Validate(domain.TypeAcronymChallenge, raw); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	t.Run("options bounded when present", func(t *testing.T) {
		raw := json.RawMessage(`{"acronym": "A", "fullForm": "f", "options": ["only one"]}`)
		if _, err := r.Validate(domain.TypeAcronymChallenge, raw); err == nil {
			t.Error("Validate() expected error for single option")
		}
	})
}

func hasField(vErr *ValidationError, field string) bool {
	for _, f := range vErr.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}
