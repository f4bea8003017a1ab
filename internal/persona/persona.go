// Package persona holds the fixed identity the voice bot answers as: the
// five interview topics, the canned answer bank, the fallback line for
// unmatched questions, and the profile text fed to generative providers.
//
// The answer bank is immutable after construction. Every topic must carry a
// non-empty answer; a bank that cannot answer one of its topics is a
// configuration error, not a runtime condition.
package persona

import (
	"fmt"
	"sort"
	"strings"
)

// Topic identifies one of the fixed interview subjects the bot can speak to.
type Topic string

const (
	// TopicLifeStory covers background and biography questions.
	TopicLifeStory Topic = "life_story"
	// TopicSuperpower covers the "#1 strength" question.
	TopicSuperpower Topic = "superpower"
	// TopicGrowthAreas covers the "top 3 areas to grow in" question.
	TopicGrowthAreas Topic = "growth_areas"
	// TopicMisconception covers the "what do coworkers get wrong" question.
	TopicMisconception Topic = "misconception"
	// TopicBoundaries covers the "how do you push your limits" question.
	TopicBoundaries Topic = "boundaries"
)

// AllTopics returns every topic in a stable order.
func AllTopics() []Topic {
	return []Topic{
		TopicLifeStory,
		TopicSuperpower,
		TopicGrowthAreas,
		TopicMisconception,
		TopicBoundaries,
	}
}

// Valid reports whether t is one of the known topics.
func (t Topic) Valid() bool {
	switch t {
	case TopicLifeStory, TopicSuperpower, TopicGrowthAreas, TopicMisconception, TopicBoundaries:
		return true
	}
	return false
}

// String returns the topic's wire identifier.
func (t Topic) String() string { return string(t) }

// ParseTopic converts a wire identifier back to a Topic.
func ParseTopic(s string) (Topic, error) {
	t := Topic(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("persona: unknown topic %q", s)
	}
	return t, nil
}

// Bank is an immutable collection of canned answers, one per topic, plus a
// fallback line for questions that match no topic.
type Bank struct {
	answers  map[Topic]string
	fallback string
}

// NewBank constructs a Bank. Every topic returned by AllTopics must be
// present with a non-empty answer, and fallback must be non-empty. The
// answers map is copied; later mutation of the argument does not affect the
// bank.
func NewBank(answers map[Topic]string, fallback string) (*Bank, error) {
	if strings.TrimSpace(fallback) == "" {
		return nil, fmt.Errorf("persona: fallback answer must not be empty")
	}

	var missing []string
	copied := make(map[Topic]string, len(AllTopics()))
	for _, t := range AllTopics() {
		a, ok := answers[t]
		if !ok || strings.TrimSpace(a) == "" {
			missing = append(missing, string(t))
			continue
		}
		copied[t] = a
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("persona: missing answers for topics: %s", strings.Join(missing, ", "))
	}

	for t := range answers {
		if !t.Valid() {
			return nil, fmt.Errorf("persona: unknown topic %q in answer bank", t)
		}
	}

	return &Bank{answers: copied, fallback: fallback}, nil
}

// Answer returns the canned answer for t. The second return is false when t
// is not a known topic.
func (b *Bank) Answer(t Topic) (string, bool) {
	a, ok := b.answers[t]
	return a, ok
}

// Fallback returns the line used when no topic matches the question.
func (b *Bank) Fallback() string { return b.fallback }

// DefaultBank returns the built-in persona answers.
func DefaultBank() *Bank {
	b, err := NewBank(map[Topic]string{
		TopicLifeStory:     "I'm a passionate technology professional who started with computer science and evolved into AI development. I focus on creating solutions that simplify complex technology.",
		TopicSuperpower:    "My #1 superpower is rapid learning and clear communication, helping me explain complex concepts simply and bridge gaps between technical teams and users.",
		TopicGrowthAreas:   "I aim to grow in: 1) AI ethics, 2) Leadership and mentorship, 3) Product strategy and user-centered design.",
		TopicMisconception: "People think I'm purely technical, but I'm very people-oriented. Collaboration and understanding different perspectives drive the best solutions.",
		TopicBoundaries:    "I push my boundaries by taking on new projects, seeking diverse feedback, and dedicating time to learn new skills each week.",
	}, "That's an interesting question! Feel free to ask about my background, strengths, or approach to challenges.")
	if err != nil {
		// The built-in bank is complete by construction.
		panic(err)
	}
	return b
}

// SampleQuestions returns the canonical interview questions, one per topic,
// in topic order.
func SampleQuestions() []string {
	return []string{
		"What should we know about your life story in a few sentences?",
		"What's your #1 superpower?",
		"What are the top 3 areas you'd like to grow in?",
		"What misconception do your coworkers have about you?",
		"How do you push your boundaries and limits?",
	}
}

// Profile describes who the bot speaks as. It seeds the system prompt for
// generative providers so free-form answers stay in character.
type Profile struct {
	// Name is the display name of the persona. Optional.
	Name string
	// Role is a one-line description of the persona. Optional.
	Role string
	// Bank supplies the grounding facts woven into the system prompt.
	Bank *Bank
}

// SystemPrompt renders the persona as an instruction block for an LLM. The
// canned answers are included verbatim so generated responses stay
// consistent with them.
func (p Profile) SystemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are answering interview questions as a real person, in the first person.")
	if p.Name != "" {
		sb.WriteString(" Your name is ")
		sb.WriteString(p.Name)
		sb.WriteString(".")
	}
	if p.Role != "" {
		sb.WriteString(" You are ")
		sb.WriteString(p.Role)
		sb.WriteString(".")
	}
	sb.WriteString("\n\nStay consistent with these facts about yourself:\n")

	bank := p.Bank
	if bank == nil {
		bank = DefaultBank()
	}
	for _, t := range AllTopics() {
		a, _ := bank.Answer(t)
		sb.WriteString("- ")
		sb.WriteString(a)
		sb.WriteString("\n")
	}
	sb.WriteString("\nAnswer in a few warm, conversational sentences. Do not mention that you are an assistant or that these facts were provided to you.")
	return sb.String()
}
