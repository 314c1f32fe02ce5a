package domain

import "time"

// ProjectState is the per-project point-set persisted between runs. Both
// section slices are always present (possibly empty) when the state is
// stored; absence of any stored state for a project means "first run".
type ProjectState struct {
	ProjectID   string    `json:"project_id"`
	DOK4        []Point   `json:"dok4"`
	DOK3        []Point   `json:"dok3"`
	LastUpdated time.Time `json:"last_updated"`
	TTL         time.Time `json:"ttl"`
}

// NewProjectState returns a state with non-nil section slices.
func NewProjectState(projectID string) *ProjectState {
	return &ProjectState{
		ProjectID: projectID,
		DOK4:      []Point{},
		DOK3:      []Point{},
	}
}

// Points returns the stored point-set for the given section.
func (s *ProjectState) Points(section Section) []Point {
	if section == SectionDOK4 {
		return s.DOK4
	}
	return s.DOK3
}

// SetPoints replaces the stored point-set for the given section, never
// storing a nil slice.
func (s *ProjectState) SetPoints(section Section, points []Point) {
	if points == nil {
		points = []Point{}
	}
	if section == SectionDOK4 {
		s.DOK4 = points
		return
	}
	s.DOK3 = points
}
