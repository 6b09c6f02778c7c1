package classifier

var (
	highIntentPhrases = []string{
		"buy", "purchase", "subscribe", "upgrade",
		"when can we start", "how do we begin",
		"what's the next step", "ready to proceed",
	}

	pricingTerms = []string{"pricing", "cost"}
	demoTerms    = []string{"demo", "trial"}

	contactTriggers = []string{
		"pricing", "price", "cost", "how much", "quote", "estimate",
		"demo", "demonstration", "show me", "trial",
		"speak to someone", "human", "representative", "sales",
		"call me", "phone", "contact",
		"business plan", "enterprise", "custom",
		"integration", "setup help", "implementation",
	}

	noInformation = "I don't have that information"

	incompleteMarkers = []string{
		noInformation, "I don't know", "contact", "speak to",
	}
)

// DefaultRules returns the escalation table in reason priority order:
// high intent, pricing, demo, missing information. Rows without a reason
// only escalate.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "high_intent", Source: Question, Phrases: highIntentPhrases, Escalates: true, Reason: ReasonHighIntent},
		{Name: "pricing", Source: Question, Phrases: pricingTerms, Escalates: true, Reason: ReasonPricingInquiry},
		{Name: "demo", Source: Question, Phrases: demoTerms, Escalates: true, Reason: ReasonDemoRequest},
		{Name: "contact_trigger", Source: Question, Phrases: contactTriggers, Escalates: true},
		{Name: "no_information", Source: Answer, Phrases: []string{noInformation}, Escalates: true, Reason: ReasonIncompleteAnswer},
		{Name: "incomplete_answer", Source: Answer, Phrases: incompleteMarkers, Escalates: true},
	}
}
