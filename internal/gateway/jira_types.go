package gateway

import jira "github.com/andygrunwald/go-jira"

// Board is a Jira agile board.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// jiraIssuePage is one page of the agile sprint issue listing. The client's
// sprint service reads only the first page, so pages are requested directly.
type jiraIssuePage struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Issues     []jira.Issue `json:"issues"`
}

// jiraBoardConfiguration carries the estimation settings, which the client's
// BoardConfiguration type does not declare.
type jiraBoardConfiguration struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Estimation *struct {
		Type  string `json:"type"`
		Field *struct {
			FieldID     string `json:"fieldId"`
			DisplayName string `json:"displayName"`
		} `json:"field"`
	} `json:"estimation"`
}
