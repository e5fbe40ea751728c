// Package metabase implements the HTTP gateway to a Metabase instance:
// session authentication, the handful of API calls the sync tool needs, and
// retry handling for transient failures.
package metabase

import "fmt"

// Database is a data source configured on an instance.
type Database struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// User is an instance account, listed by inspect.
type User struct {
	Email      string `json:"email"`
	CommonName string `json:"common_name"`
}

// InstanceStats summarizes an instance for the inspect command.
type InstanceStats struct {
	Version    string
	Cards      int
	Dashboards int
	Databases  int
}

// DashcardPayload is one entry of the bulk layout update. The instance
// treats a negative id as "new placement, assign a real id"; a non-negative
// id updates the placement it names. Placeholder assignment is done by the
// caller so the dashboard model itself stays free of the convention.
type DashcardPayload struct {
	ID                    int64          `json:"id"`
	CardID                *int64         `json:"card_id,omitempty"`
	Row                   int            `json:"row"`
	Col                   int            `json:"col"`
	SizeX                 int            `json:"size_x"`
	SizeY                 int            `json:"size_y"`
	VisualizationSettings map[string]any `json:"visualization_settings"`
	ParameterMappings     []any          `json:"parameter_mappings"`
}

// APIError is a non-2xx response from the instance.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("metabase API error %d on %s: %s", e.StatusCode, e.Path, e.Message)
	}
	return fmt.Sprintf("metabase API error %d on %s", e.StatusCode, e.Path)
}

// Transient reports whether the error is worth retrying. Server-side
// failures are; client errors and validation failures are not.
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500
}
