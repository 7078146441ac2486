package outreach

import "strings"

// Render substitutes {field} placeholders by literal replacement. Fields with
// empty values and placeholders with no matching field stay verbatim, so a
// half-filled template remains visibly half-filled instead of silently losing
// text.
func Render(body string, fields map[string]string) string {
	for key, value := range fields {
		if value == "" {
			continue
		}

		body = strings.ReplaceAll(body, "{"+key+"}", value)
	}

	return body
}
