package extract

import (
	"fmt"

	"github.com/jdkato/prose/v2"
)

// PersonExtractor tags person names in a text blob. Implementations return
// the tagged substrings in the order the model emits them; accuracy is
// best-effort, and the model is swappable.
type PersonExtractor interface {
	People(text string) ([]string, error)
}

// ProseExtractor runs named-entity recognition with the prose model.
type ProseExtractor struct{}

func NewProseExtractor() *ProseExtractor {
	return &ProseExtractor{}
}

func (e *ProseExtractor) People(text string) ([]string, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("ner document: %w", err)
	}
	var people []string
	for _, ent := range doc.Entities() {
		if ent.Label == "PERSON" {
			people = append(people, ent.Text)
		}
	}
	return people, nil
}
