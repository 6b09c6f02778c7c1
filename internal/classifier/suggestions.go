package classifier

var suggestions = map[Reason]string{
	ReasonHighIntent:       "It sounds like you're ready to move forward! Let's schedule a call to discuss your specific needs.",
	ReasonPricingInquiry:   "I'd be happy to provide detailed pricing information. Let's schedule a quick call to discuss your requirements.",
	ReasonDemoRequest:      "I can arrange a personalized demo for you. When would be a good time for a call?",
	ReasonIncompleteAnswer: "I don't have all the details you need. Let me connect you with someone who can help.",
	ReasonLongConversation: "You've asked some great questions! Would you like to speak with someone directly?",
	ReasonTechnicalIssue:   "I'm experiencing some technical difficulties. Let me have someone contact you to help.",
	ReasonGeneralInquiry:   "Would you like to speak with someone who can provide more detailed information?",
}

// Suggestion returns the callback prompt for reason, falling back to the
// general inquiry text for unknown reasons.
func Suggestion(reason Reason) string {
	if s, ok := suggestions[reason]; ok {
		return s
	}
	return suggestions[ReasonGeneralInquiry]
}
