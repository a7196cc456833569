package generate

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"quizrush/internal/domain"
)

// questionSetSchema is the contract generated output must satisfy before
// a set is served or cached.
const questionSetSchema = `{
	"type": "array",
	"minItems": 5,
	"maxItems": 5,
	"items": {
		"type": "object",
		"required": ["question", "options", "answer"],
		"properties": {
			"question": {"type": "string", "minLength": 1},
			"options": {
				"type": "array",
				"minItems": 4,
				"maxItems": 4,
				"items": {"type": "string", "minLength": 1}
			},
			"answer": {"type": "string", "enum": ["A", "B", "C", "D"]},
			"explanation": {"type": "string"}
		}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func questionSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		var def any
		if err := json.Unmarshal([]byte(questionSetSchema), &def); err != nil {
			schemaErr = fmt.Errorf("parse question schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		const url = "schema://question-set.json"
		if err := c.AddResource(url, def); err != nil {
			schemaErr = fmt.Errorf("add question schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}

// ParseQuestionSet turns a raw completion into a validated QuestionSet.
// Anything that fails the schema counts as a generation failure and the
// caller substitutes the fallback set.
func ParseQuestionSet(raw string, level int) (domain.QuestionSet, error) {
	cleaned := stripFences(raw)

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("generated questions are not valid JSON: %w", err)
	}

	schema, err := questionSchema()
	if err != nil {
		return domain.QuestionSet{}, err
	}
	if err := schema.Validate(parsed); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("generated questions failed validation: %w", err)
	}

	var questions []domain.Question
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("decode generated questions: %w", err)
	}
	return domain.QuestionSet{Level: level, Questions: questions}, nil
}

// stripFences unwraps a markdown code fence some models insist on adding.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	parts := strings.Split(s, "```")
	if len(parts) < 2 {
		return s
	}
	s = strings.TrimPrefix(parts[1], "json")
	return strings.TrimSpace(s)
}
