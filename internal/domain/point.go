package domain

// Section identifies which outline subtree a point belongs to.
type Section string

const (
	SectionDOK3 Section = "dok3"
	SectionDOK4 Section = "dok4"
)

// Label returns the human-readable section name as it appears in outlines.
func (s Section) Label() string {
	switch s {
	case SectionDOK3:
		return "Insights"
	case SectionDOK4:
		return "Spiky POV"
	default:
		return string(s)
	}
}

// Point is a single semantic content item inside one section: one main line
// plus its ordered sub-lines.
type Point struct {
	MainContent      string   `json:"main_content"`
	SubPoints        []string `json:"sub_points"`
	Section          Section  `json:"section"`
	PointNumber      int      `json:"point_number"`
	ContentSignature string   `json:"content_signature"`
}

// Node is one raw outline node as returned by the content source.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
	Note     string `json:"note,omitempty"`
	Order    int    `json:"order"`
}
