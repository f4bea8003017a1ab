// Package intent maps free-form questions to persona topics using ordered
// keyword rules.
//
// Classification is deliberately simple: the question is lower-cased and
// trimmed, then each rule's keywords are checked as substrings. Rules are
// evaluated in a fixed priority order and the first match wins, so a
// question touching several topics resolves deterministically.
package intent

import (
	"strings"

	"github.com/MrWong99/vitavox/internal/persona"
)

// Rule binds one topic to the keywords that select it. Keywords are matched
// as case-insensitive substrings of the normalised question.
type Rule struct {
	Topic    persona.Topic
	Keywords []string
}

// DefaultRules returns the built-in rule set in priority order. Earlier
// rules win over later ones when a question matches several.
func DefaultRules() []Rule {
	return []Rule{
		{persona.TopicLifeStory, []string{"life story", "about you", "background", "tell me about yourself"}},
		{persona.TopicSuperpower, []string{"superpower", "super power", "strength", "#1"}},
		{persona.TopicGrowthAreas, []string{"grow", "improve", "development", "areas", "top 3"}},
		{persona.TopicMisconception, []string{"misconception", "people think", "coworker", "coworkers"}},
		{persona.TopicBoundaries, []string{"boundaries", "limits", "push", "challenge"}},
	}
}

// Match is the outcome of classifying one question.
type Match struct {
	// Topic is the matched topic. Only meaningful when Matched is true.
	Topic persona.Topic
	// Keyword is the specific keyword that triggered the match.
	Keyword string
	// Matched is false when no rule applied.
	Matched bool
}

// Classifier evaluates a fixed, ordered rule set. The zero value is not
// usable; construct with NewClassifier.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds a Classifier over the given rules. Passing nil uses
// DefaultRules. The rule slice is copied.
func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied}
}

// Classify normalises the question and returns the first matching rule's
// topic. An empty or whitespace-only question never matches.
func (c *Classifier) Classify(question string) Match {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return Match{}
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(q, kw) {
				return Match{Topic: r.Topic, Keyword: kw, Matched: true}
			}
		}
	}
	return Match{}
}
