package domain

import "time"

// Project binds one tracked outline document to one posting account. The
// ProjectID is generated once and stays stable across URL rotation; the
// pipeline reads projects read-only, mutations happen out-of-band through
// the registry.
type Project struct {
	ProjectID string    `json:"project_id" db:"project_id"`
	URL       string    `json:"url" db:"url"`
	Name      string    `json:"name" db:"name"`
	AccountID string    `json:"account_id" db:"account_id"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
