package messaging

import (
	"fmt"
	"html"
	"strings"

	"github.com/carelane/carelane/pkg/models"
)

const defaultBrandColor = "#2563eb"

// BrandEmail wraps a plain body in the agency-branded HTML shell: colored
// header with the agency name or logo, escaped paragraph body, phone footer.
// A nil agency falls back to neutral branding.
func BrandEmail(agency *models.Agency, body string) string {
	name := "Carelane"
	color := defaultBrandColor
	logo := ""
	phone := ""

	if agency != nil {
		if agency.Name != "" {
			name = agency.Name
		}

		if agency.PrimaryColor != "" {
			color = agency.PrimaryColor
		}

		logo = agency.LogoURL
		phone = agency.Phone
	}

	var header string
	if logo != "" {
		header = fmt.Sprintf(`<img src=%q alt=%q style="max-height:48px" />`, logo, name)
	} else {
		header = fmt.Sprintf(`<h2 style="margin:0;color:#ffffff">%s</h2>`, html.EscapeString(name))
	}

	var paragraphs strings.Builder

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		paragraphs.WriteString(`<p style="margin:0 0 12px">` + html.EscapeString(line) + `</p>`)
	}

	footer := html.EscapeString(name)
	if phone != "" {
		footer += " · " + html.EscapeString(phone)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f5;font-family:Arial,Helvetica,sans-serif">
  <div style="max-width:600px;margin:0 auto;background:#ffffff">
    <div style="background:%s;padding:20px 24px">%s</div>
    <div style="padding:24px;color:#1f2937;font-size:15px;line-height:1.5">%s</div>
    <div style="padding:16px 24px;border-top:1px solid #e5e7eb;color:#6b7280;font-size:12px">%s</div>
  </div>
</body>
</html>`, color, header, paragraphs.String(), footer)
}
