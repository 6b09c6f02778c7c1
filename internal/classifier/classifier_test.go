package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		question string
		answer   string
		length   int
		escalate bool
		reason   Reason
	}{
		{"pricing question", "What is your pricing?", "...", 0, true, ReasonPricingInquiry},
		{"general question", "Tell me about your product", "Here is the general overview...", 0, false, ReasonGeneralInquiry},
		{"short conversation", "ok", "...", 4, false, ReasonGeneralInquiry},
		{"long conversation", "ok", "...", 5, true, ReasonLongConversation},
		{"question is case insensitive", "WHAT DOES IT COST", "...", 0, true, ReasonPricingInquiry},
		{"demo request", "Can we book a trial?", "...", 0, true, ReasonDemoRequest},
		{"trigger without reason", "Is there a price list?", "...", 0, true, ReasonGeneralInquiry},
		{"human handoff", "Can I talk to a human?", "...", 0, true, ReasonGeneralInquiry},
		{"human handoff in long conversation", "Can I talk to a human?", "...", 7, true, ReasonLongConversation},
		{"missing information", "What is the warranty?", "I don't have that information in the provided documents.", 0, true, ReasonIncompleteAnswer},
		{"missing information beats length", "What is the warranty?", "I don't have that information in the provided documents.", 9, true, ReasonIncompleteAnswer},
		{"answer marker without reason", "What is the warranty?", "Please contact support for details.", 0, true, ReasonGeneralInquiry},
		{"answer is case sensitive", "What is the warranty?", "i don't know", 0, false, ReasonGeneralInquiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Classify(tt.question, tt.answer, tt.length)
			assert.Equal(t, tt.escalate, d.ShouldEscalate)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, Suggestion(tt.reason), d.Suggestion)
		})
	}
}

func TestClassify_HighIntentWins(t *testing.T) {
	questions := []string{
		"I want to buy it",
		"How do I purchase the pricing plan with a demo?",
		"Can we upgrade? What does it cost?",
		"What's the next step for the trial?",
		"We are ready to proceed",
	}
	answers := []string{"...", "I don't have that information", "Please contact us"}

	for _, q := range questions {
		for _, a := range answers {
			for _, length := range []int{0, 4, 5, 20} {
				d := Classify(q, a, length)
				assert.True(t, d.ShouldEscalate, q)
				assert.Equal(t, ReasonHighIntent, d.Reason, q)
			}
		}
	}
}

func TestClassify_PricingBeforeDemo(t *testing.T) {
	for _, q := range []string{
		"Can I get a demo and see the pricing?",
		"What is the pricing for a demo?",
		"trial cost",
		"cost of a trial",
	} {
		d := Classify(q, "...", 0)
		assert.Equal(t, ReasonPricingInquiry, d.Reason, q)
	}
}

func TestClassify_CustomTable(t *testing.T) {
	c := New([]Rule{
		{Name: "refund", Source: Question, Phrases: []string{"refund"}, Escalates: true, Reason: ReasonTechnicalIssue},
		{Name: "weather", Source: Question, Phrases: []string{"weather"}},
	}, 2)

	d := c.Classify("I need a REFUND", "", 0)
	assert.True(t, d.ShouldEscalate)
	assert.Equal(t, ReasonTechnicalIssue, d.Reason)

	d = c.Classify("how is the weather", "", 1)
	assert.False(t, d.ShouldEscalate)
	assert.Equal(t, ReasonGeneralInquiry, d.Reason)

	d = c.Classify("how is the weather", "", 2)
	assert.True(t, d.ShouldEscalate)
	assert.Equal(t, ReasonLongConversation, d.Reason)
}

func TestNew_DefaultThreshold(t *testing.T) {
	c := New(DefaultRules(), 0)
	assert.False(t, c.Classify("ok", "", 4).ShouldEscalate)
	assert.True(t, c.Classify("ok", "", 5).ShouldEscalate)
}

func TestTechnicalIssue(t *testing.T) {
	d := TechnicalIssue()
	assert.True(t, d.ShouldEscalate)
	assert.Equal(t, ReasonTechnicalIssue, d.Reason)
	assert.Contains(t, d.Suggestion, "technical difficulties")
}

func TestSuggestion(t *testing.T) {
	reasons := []Reason{
		ReasonHighIntent, ReasonPricingInquiry, ReasonDemoRequest, ReasonIncompleteAnswer,
		ReasonLongConversation, ReasonGeneralInquiry, ReasonTechnicalIssue,
	}
	seen := make(map[string]bool)
	for _, r := range reasons {
		s := Suggestion(r)
		assert.NotEmpty(t, s, r)
		seen[s] = true
	}
	assert.Len(t, seen, len(reasons))
	assert.Equal(t, Suggestion(ReasonGeneralInquiry), Suggestion("unknown"))
}
