// Package registry describes the job types this service implements.
package registry

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity is one job type: its task type, JSON schemas and retry policy.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          map[string]interface{} `json:"inputSchema"`
	OutputSchema         map[string]interface{} `json:"outputSchema"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

//go:embed activities.json
var embeddedActivities []byte

// Default returns the registry compiled into the binary.
func Default() (*ActivityRegistry, error) {
	return parse(embeddedActivities)
}

// LoadRegistry reads a registry file, for deployments that override the
// embedded one.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse activity registry: %w", err)
	}
	return &reg, nil
}

// Find returns the activity registered for a task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate checks that every activity carries its identifying fields, has a
// unique task type and declares a parseable timeout.
func (r *ActivityRegistry) Validate() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}

	seen := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		if a.ID == "" {
			return fmt.Errorf("activity missing required field: id")
		}
		if a.TaskType == "" {
			return fmt.Errorf("activity %s missing required field: taskType", a.ID)
		}
		if a.DisplayName == "" {
			return fmt.Errorf("activity %s missing required field: displayName", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("duplicate task type: %s", a.TaskType)
		}
		seen[a.TaskType] = true

		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("activity %s has invalid timeout %q: %w", a.ID, a.Timeout, err)
			}
		}
		if a.Retries < 0 {
			return fmt.Errorf("activity %s has negative retries", a.ID)
		}
	}
	return nil
}
