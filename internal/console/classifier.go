package console

import (
	"fmt"

	"github.com/gobwas/glob"
)

// StatusRule maps a status to the glob patterns that select it.
type StatusRule struct {
	Status   Status   `json:"status" yaml:"status"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// Classifier assigns a Status to a raw reply from an ordered rule table.
type Classifier struct {
	rules []compiledPattern
}

type compiledPattern struct {
	status Status
	glob   glob.Glob
}

// NewClassifier compiles every pattern of table. Patterns are compiled
// without separators so that wildcards also span newlines.
func NewClassifier(table []StatusRule) (*Classifier, error) {
	c := &Classifier{}
	for _, rule := range table {
		if _, err := ParseStatus(string(rule.Status)); err != nil {
			return nil, err
		}
		for _, pattern := range rule.Patterns {
			g, err := glob.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("console: compile %s pattern %q: %w", rule.Status, pattern, err)
			}
			c.rules = append(c.rules, compiledPattern{status: rule.Status, glob: g})
		}
	}
	return c, nil
}

// Classify returns the status of the first pattern, in table order then
// pattern order, that matches the entire reply, or StatusUnknown.
func (c *Classifier) Classify(raw string) Status {
	for _, rule := range c.rules {
		if rule.glob.Match(raw) {
			return rule.status
		}
	}
	return StatusUnknown
}
