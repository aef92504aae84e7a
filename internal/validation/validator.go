package validation

import (
	"fmt"
	"strings"

	"reel-quizzer/internal/domain"
)

var requiredTopLevelKeys = []string{"meta", "items", "quiz"}

// ValidateDocument applies the minimal structural contract to a recovered
// value and stops at the first violation:
//  1. the value is a JSON object
//  2. meta, items and quiz are present
//  3. meta contains title_en
//  4. quiz is an array
//
// Item fields, id uniqueness and quiz target references are not checked; use
// Strict for that.
func ValidateDocument(value interface{}) error {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return domain.NewValidationError("$", "top-level JSON is not an object")
	}

	for _, key := range requiredTopLevelKeys {
		if _, present := obj[key]; !present {
			return domain.NewValidationError(key, fmt.Sprintf("missing required top-level key: %s", key))
		}
	}

	meta, _ := obj["meta"].(map[string]interface{})
	if _, present := meta["title_en"]; !present {
		return domain.NewValidationError("meta.title_en", "meta.title_en missing")
	}

	if _, isArray := obj["quiz"].([]interface{}); !isArray {
		return domain.NewValidationError("quiz", "quiz must be an array")
	}

	return nil
}

// Strict checks referential integrity that the minimal contract leaves out:
// item ids must be unique within their group and every quiz target must name
// an existing item. All problems are reported together.
func Strict(raw []byte) error {
	doc, err := domain.ParseQuizDocument(raw)
	if err != nil {
		return domain.NewError(domain.CodeValidation, "document does not match the quiz schema", err).
			WithContext("field", "$")
	}

	var problems []string
	known := make(map[domain.ItemRef]bool)
	for _, group := range domain.ItemGroups {
		seen := make(map[domain.ItemRef]bool)
		for i, item := range doc.Items.Group(group) {
			id := item.ID()
			if id == "" {
				problems = append(problems, fmt.Sprintf("items.%s[%d] has no id", group, i))
				continue
			}
			if seen[id] {
				problems = append(problems, fmt.Sprintf("items.%s: duplicate id %q", group, id))
			}
			seen[id] = true
			known[id] = true
		}
	}

	for i, q := range doc.Quiz {
		for _, target := range q.Targets {
			if !known[target] {
				problems = append(problems, fmt.Sprintf("quiz[%d].targets: unknown item %q", i, target))
			}
		}
	}

	if len(problems) > 0 {
		return domain.NewError(domain.CodeValidation, "document failed strict validation: "+strings.Join(problems, "; "), nil).
			WithContext("field", "items").
			WithContext("problems", problems)
	}
	return nil
}
