// Package lead derives the CRM lead record from a frozen answer snapshot.
package lead

import "time"

// StatusNew is the status every freshly derived lead starts in.
const StatusNew = "new"

// Lead is the persisted triage summary of one submission. Answers holds
// the full raw snapshot so a human can review what the positional fields
// were derived from.
type Lead struct {
	ID              string
	QuestionnaireID string
	ClientName      string
	Email           string
	Phone           string
	Channel         string
	Status          string
	Partner         string
	SubStatus       string
	Answers         map[string]any
	CreatedAt       time.Time
}
