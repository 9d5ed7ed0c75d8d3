// internal/workers/notifications/dispatch-notification/models.go
package dispatchnotification

type Input struct {
	IssueID string `json:"issueId"`
	Trigger string `json:"trigger"`
	Urgency string `json:"urgency,omitempty"`
}

type Output struct {
	IssueID    string `json:"issueId"`
	Trigger    string `json:"trigger"`
	Dispatched bool   `json:"dispatched"`
	Queued     bool   `json:"queued"`
}
