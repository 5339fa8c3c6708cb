package domain

import "time"

// CaseRecord is the case section of a context payload. The context service
// owns the full schema; only the fields the orchestrator scores on are
// modeled here.
type CaseRecord struct {
	CaseNumber   string `json:"case_number,omitempty"`
	Title        string `json:"title,omitempty"`
	Status       string `json:"status,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	CaseType     string `json:"case_type,omitempty"`
}

// Party is a participant attached to a case
type Party struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Deadline is an upcoming date attached to a case
type Deadline struct {
	Description string    `json:"description"`
	DueAt       time.Time `json:"due_at"`
}

// CaseContext is the situational payload returned by the external context
// service for a tenant/case
type CaseContext struct {
	TenantID  string            `json:"tenant_id"`
	CaseID    string            `json:"case_id,omitempty"`
	Case      *CaseRecord       `json:"case,omitempty"`
	Parties   []Party           `json:"parties,omitempty"`
	Deadlines []Deadline        `json:"deadlines,omitempty"`
	Summary   string            `json:"summary,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Empty reports whether the payload carries no usable context
func (c *CaseContext) Empty() bool {
	if c == nil {
		return true
	}
	return c.Case == nil && len(c.Parties) == 0 && len(c.Deadlines) == 0 && c.Summary == ""
}
