package classifier

import (
	"strings"
)

type Reason string

const (
	ReasonHighIntent       Reason = "high_intent"
	ReasonPricingInquiry   Reason = "pricing_inquiry"
	ReasonDemoRequest      Reason = "demo_request"
	ReasonIncompleteAnswer Reason = "incomplete_answer"
	ReasonLongConversation Reason = "long_conversation"
	ReasonGeneralInquiry   Reason = "general_inquiry"
	ReasonTechnicalIssue   Reason = "technical_issue"
)

// DefaultLongConversation is the number of prior turns after which a human
// is offered regardless of content.
const DefaultLongConversation = 5

// Source selects which side of a chat turn a rule inspects.
type Source int

const (
	// Question is matched after lower-casing.
	Question Source = iota
	// Answer is matched verbatim.
	Answer
)

// Rule is one row of the escalation table. A matching rule escalates when
// Escalates is set and, if Reason is non-empty, claims the reason unless an
// earlier rule already did.
type Rule struct {
	Name      string
	Source    Source
	Phrases   []string
	Escalates bool
	Reason    Reason
}

func (r Rule) matches(question, answer string) bool {
	text := question
	if r.Source == Answer {
		text = answer
	}
	for _, phrase := range r.Phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// Decision is the outcome of classifying one chat turn. Reason and
// Suggestion are filled even when ShouldEscalate is false.
type Decision struct {
	ShouldEscalate bool   `json:"should_escalate"`
	Reason         Reason `json:"reason"`
	Suggestion     string `json:"suggestion"`
}

// Classifier decides whether a chat turn should be escalated to a person.
type Classifier struct {
	rules            []Rule
	longConversation int
}

// New builds a classifier over rules, evaluated in order. A non-positive
// longConversation falls back to DefaultLongConversation.
func New(rules []Rule, longConversation int) *Classifier {
	if longConversation <= 0 {
		longConversation = DefaultLongConversation
	}
	return &Classifier{
		rules:            rules,
		longConversation: longConversation,
	}
}

// NewDefault returns a classifier over DefaultRules.
func NewDefault() *Classifier {
	return New(DefaultRules(), DefaultLongConversation)
}

// Classify decides whether to offer a callback for a chat turn.
// conversationLength is the number of prior turns.
func (c *Classifier) Classify(question, answer string, conversationLength int) Decision {
	question = strings.ToLower(question)

	var d Decision
	for _, rule := range c.rules {
		if !rule.matches(question, answer) {
			continue
		}
		if rule.Escalates {
			d.ShouldEscalate = true
		}
		if d.Reason == "" && rule.Reason != "" {
			d.Reason = rule.Reason
		}
	}

	if conversationLength >= c.longConversation {
		d.ShouldEscalate = true
		if d.Reason == "" {
			d.Reason = ReasonLongConversation
		}
	}
	if d.Reason == "" {
		d.Reason = ReasonGeneralInquiry
	}

	d.Suggestion = Suggestion(d.Reason)
	return d
}

var defaultClassifier = NewDefault()

// Classify runs the default rule table.
func Classify(question, answer string, conversationLength int) Decision {
	return defaultClassifier.Classify(question, answer, conversationLength)
}

// TechnicalIssue is the forced decision used when no answer could be
// produced at all.
func TechnicalIssue() Decision {
	return Decision{
		ShouldEscalate: true,
		Reason:         ReasonTechnicalIssue,
		Suggestion:     Suggestion(ReasonTechnicalIssue),
	}
}
