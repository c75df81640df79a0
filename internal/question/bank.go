package question

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/lagna/internal/model"
	"github.com/ppiankov/lagna/internal/score"
)

//go:embed bank.yaml
var defaultBank []byte

// Kind distinguishes dated events from categorical traits
type Kind string

const (
	KindEvent Kind = "event"
	KindTrait Kind = "trait"
)

// Question is one entry of the question bank
type Question struct {
	ID      string            `yaml:"id" json:"id"`
	Text    string            `yaml:"text" json:"text"`
	Tag     model.EventTag    `yaml:"tag" json:"tag"`
	Kind    Kind              `yaml:"kind" json:"kind"`
	Factor  Factor            `yaml:"factor" json:"factor"`
	Options []string          `yaml:"options,omitempty" json:"options,omitempty"`
	Labels  map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
	Weight  float64           `yaml:"weight" json:"weight"`
}

// Item turns an answer to the question into evidence
func (q Question) Item(answer, reportedDate string) model.EvidenceItem {
	return model.EvidenceItem{
		QuestionID:   q.ID,
		Tag:          q.Tag,
		Answer:       answer,
		ReportedDate: reportedDate,
		Weight:       q.Weight,
	}
}

type bankFile struct {
	Questions []Question `yaml:"questions"`
}

// DefaultBank returns the built-in question bank
func DefaultBank() ([]Question, error) {
	return ParseBank(defaultBank)
}

// LoadBank reads a question bank from a YAML file
func LoadBank(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return ParseBank(data)
}

// ParseBank decodes and checks a YAML question bank
func ParseBank(data []byte) ([]Question, error) {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(f.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	seen := make(map[string]bool, len(f.Questions))
	for i := range f.Questions {
		q := &f.Questions[i]
		if q.ID == "" || seen[q.ID] {
			return nil, fmt.Errorf("question %d: missing or duplicate id %q", i, q.ID)
		}
		seen[q.ID] = true

		if !q.Tag.Known() {
			return nil, fmt.Errorf("question %s: unknown tag %q", q.ID, q.Tag)
		}
		if q.Kind == "" {
			q.Kind = KindTrait
			if q.Tag.Dated() {
				q.Kind = KindEvent
			}
		}
		if (q.Kind == KindEvent) != q.Tag.Dated() {
			return nil, fmt.Errorf("question %s: kind %s does not match tag %s", q.ID, q.Kind, q.Tag)
		}
		if q.Kind == KindEvent {
			f, _ := EventFactor(q.Tag)
			switch {
			case q.Factor == "":
				q.Factor = f
			case q.Factor != f:
				return nil, fmt.Errorf("question %s: factor %s does not match tag %s, which is measured on %s", q.ID, q.Factor, q.Tag, f)
			}
		}
		if _, ok := factors[q.Factor]; !ok {
			return nil, fmt.Errorf("question %s: unknown factor %q", q.ID, q.Factor)
		}
		if q.Weight < 0 || q.Weight > 1 {
			return nil, fmt.Errorf("question %s: weight %.2f outside [0, 1]", q.ID, q.Weight)
		}

		switch q.Kind {
		case KindEvent:
			q.Options = []string{model.AnswerYes, model.AnswerNo}
		case KindTrait:
			valid := score.TraitOptions(q.Tag)
			if len(q.Options) == 0 {
				q.Options = valid
			}
			for _, opt := range q.Options {
				if !slices.Contains(valid, opt) {
					return nil, fmt.Errorf("question %s: option %q not one of %v", q.ID, opt, valid)
				}
			}
		}
	}
	return f.Questions, nil
}
