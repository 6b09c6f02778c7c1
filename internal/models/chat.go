package models

// ChatReply is returned to the client for every chat request
type ChatReply struct {
	Question          string  `json:"question"`
	Answer            string  `json:"answer,omitempty"`
	DocumentsUsed     int     `json:"documents_used"`
	ShouldShowContact bool    `json:"should_show_contact"`
	ContactReason     string  `json:"contact_reason,omitempty"`
	ContactSuggestion *string `json:"contact_suggestion"`
	Error             string  `json:"error,omitempty"`
}
