package outline

import (
	"strings"

	"brainlift_tracker/internal/domain"
)

const tabWidth = 4

// Parse turns raw section text (nested bullet markdown) into an ordered list
// of points plus the section title when the text starts with a header line.
//
// A line at the main indentation depth starts a new point; deeper lines
// become sub-points of the current point. A point whose main content is
// empty after trimming is discarded, never emitted. Points are numbered by
// emission order starting at 1.
func Parse(raw string, section domain.Section) ([]domain.Point, string) {
	var (
		points     []domain.Point
		current    *domain.Point
		title      string
		mainIndent = -1
	)

	flush := func() {
		if current == nil {
			return
		}
		if strings.TrimSpace(current.MainContent) != "" {
			current.PointNumber = len(points) + 1
			current.ContentSignature = Signature(*current)
			points = append(points, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		expanded := strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
		trimmed := strings.TrimSpace(expanded)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "#") && len(points) == 0 && current == nil {
			if title == "" {
				title = strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			}
			continue
		}

		indent := len(expanded) - len(strings.TrimLeft(expanded, " "))
		content := StripMarkup(trimmed)
		if content == "" {
			continue
		}

		if mainIndent < 0 {
			mainIndent = indent
		}

		if indent <= mainIndent {
			flush()
			current = &domain.Point{
				MainContent: content,
				SubPoints:   []string{},
				Section:     section,
			}
			continue
		}

		if current != nil {
			current.SubPoints = append(current.SubPoints, content)
		}
	}
	flush()

	return points, title
}

// StripMarkup removes bullet markers and markdown emphasis from a line,
// leaving plain text.
func StripMarkup(line string) string {
	line = strings.TrimSpace(line)
	switch line {
	case "-", "*", "+", "•":
		return ""
	}
	for _, marker := range []string{"- ", "* ", "+ ", "• "} {
		if strings.HasPrefix(line, marker) {
			line = strings.TrimSpace(line[len(marker):])
			break
		}
	}
	replacer := strings.NewReplacer("**", "", "__", "", "`", "")
	line = replacer.Replace(line)
	return strings.TrimSpace(line)
}
