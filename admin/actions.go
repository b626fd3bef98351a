// Package admin is the review surface over orders and bookings.
package admin

import "agrimart/models"

// Action is a button offered to a reviewer for a record in a given status.
type Action struct {
	Name   string        `json:"name"`
	Label  string        `json:"label"`
	Target models.Status `json:"target"`
}

var (
	approve  = Action{Name: "approve", Label: "Approve", Target: models.StatusProcessing}
	complete = Action{Name: "complete", Label: "Mark Complete", Target: models.StatusCompleted}
	cancel   = Action{Name: "cancel", Label: "Cancel", Target: models.StatusCancelled}
)

// Actions returns the actions offered for a record in status s. Terminal
// statuses offer none. Cancelling a processing record is a legal
// transition but is not offered here.
func Actions(s models.Status) []Action {
	switch s {
	case models.StatusPending:
		return []Action{approve, cancel}
	case models.StatusProcessing:
		return []Action{complete}
	default:
		return []Action{}
	}
}

func findAction(s models.Status, name string) (Action, bool) {
	for _, a := range Actions(s) {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}
