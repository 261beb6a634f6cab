package tess

import (
	"encoding/json"
	"strconv"
)

// Status represents the upstream execution lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusError     Status = "error"

	// StatusTimeout is synthesized by the execution monitor when the polling
	// budget is exhausted before the upstream reports a terminal status.
	StatusTimeout Status = "timeout"
)

// IsTerminal reports whether no further status transition can occur upstream.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusError, StatusTimeout:
		return true
	}
	return false
}

// Agent describes a TESS agent (upstream calls them templates in places).
type Agent struct {
	ID          ID     `json:"id"`
	Title       string `json:"title,omitempty"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// AgentPage is one page of the agents listing.
type AgentPage struct {
	Data        []Agent `json:"data"`
	CurrentPage int     `json:"current_page,omitempty"`
	PerPage     int     `json:"per_page,omitempty"`
	Total       int     `json:"total,omitempty"`
}

// ListAgentsInput carries the optional listing filters.
type ListAgentsInput struct {
	Page    int
	PerPage int
	Query   string
	Type    string
}

// Message is a single chat message sent to an agent execution.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ExecuteInput is the request body for agents/{id}/execute. Field names and
// defaults mirror the upstream API.
type ExecuteInput struct {
	Temperature   string    `json:"temperature"`
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	Tools         string    `json:"tools"`
	WaitExecution bool      `json:"waitExecution"`
	FileIDs       []int64   `json:"file_ids,omitempty"`
}

// Init fills upstream defaults for unset fields.
func (i *ExecuteInput) Init() {
	if i.Temperature == "" {
		i.Temperature = "1"
	}
	if i.Model == "" {
		i.Model = "tess-ai-light"
	}
	if i.Tools == "" {
		i.Tools = "no-tools"
	}
}

// Execution is the upstream execution record tracked by the monitor.
type Execution struct {
	ID        ID              `json:"id"`
	Status    Status          `json:"status"`
	Input     string          `json:"input,omitempty"`
	Output    string          `json:"output,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

// File describes an uploaded file.
type File struct {
	ID        ID     `json:"id"`
	Filename  string `json:"filename,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// FilePage is one page of the files listing.
type FilePage struct {
	Data        []File `json:"data"`
	CurrentPage int    `json:"current_page,omitempty"`
	PerPage     int    `json:"per_page,omitempty"`
	Total       int    `json:"total,omitempty"`
}

// ID tolerates the upstream's mixed use of numeric and string identifiers.
type ID string

// UnmarshalJSON accepts both "123" and 123.
func (i *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*i = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*i = ID(n.String())
	return nil
}

// MarshalJSON emits the identifier as a JSON string.
func (i ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(i))
}

func (i ID) String() string { return string(i) }

// Int returns the numeric form of the identifier, or 0 when not numeric.
func (i ID) Int() int64 {
	v, _ := strconv.ParseInt(string(i), 10, 64)
	return v
}
