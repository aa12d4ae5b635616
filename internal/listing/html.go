package listing

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"

	"github.com/snaplist/snaplist/internal/llm"
	"github.com/snaplist/snaplist/internal/registry"
)

// documentStyle is embedded verbatim into the exported document so it
// stays portable as a single file.
const documentStyle = `
    body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; line-height: 1.6; color: #333; }
    .listing-header { text-align: center; margin-bottom: 30px; }
    .listing-title { font-size: 24px; font-weight: bold; margin-bottom: 8px; }
    .listing-subtitle { color: #666; font-size: 15px; margin-bottom: 12px; }
    .badges { margin: 10px 0; }
    .badge { display: inline-block; background: #eef4fa; color: #1e5a8a; border-radius: 12px; padding: 4px 12px; margin: 0 4px; font-size: 13px; }
    .hero-image { text-align: center; margin: 20px 0; }
    .hero-image img { max-width: 100%; height: auto; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); }
    .gallery-grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(180px, 1fr)); gap: 10px; margin: 20px 0; }
    .gallery-grid img { width: 100%; height: auto; border-radius: 6px; }
    .section-title { font-size: 18px; font-weight: bold; margin: 20px 0 10px 0; border-bottom: 2px solid #007ebf; padding-bottom: 5px; }
    .specs-table { width: 100%; border-collapse: collapse; margin: 20px 0; }
    .specs-table th, .specs-table td { padding: 12px; text-align: left; border-bottom: 1px solid #ddd; }
    .specs-table th { background-color: #f5f5f5; font-weight: bold; }
    .boilerplate ul { padding-left: 20px; }
    .cta-banner { background: #007ebf; color: #fff; text-align: center; border-radius: 8px; padding: 16px; margin: 30px 0 10px 0; font-size: 17px; font-weight: bold; }
`

// boilerplateBlock is the fixed feature/shipping section.
var boilerplateBlock = strings.TrimSpace(dedent.Dedent(`
    <div class="boilerplate">
        <h2 class="section-title">Shipping &amp; Service</h2>
        <ul>
            <li>Fast dispatch within 1 business day of cleared payment</li>
            <li>Carefully packaged for safe transit</li>
            <li>Tracking number provided for every order</li>
            <li>30-day hassle-free returns</li>
        </ul>
    </div>
`))

// ctaBanner is the fixed call-to-action block.
const ctaBanner = `<div class="cta-banner">Don&#39;t miss out &mdash; Buy It Now while stock lasts!</div>`

// renderHTML produces a fully self-contained page: all text escaped, all
// images embedded inline as data URIs so the file is portable on its own.
func renderHTML(title string, rows []Row, description string, result llm.Analysis, images []registry.Image) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString("<html lang=\"en\">\n<head>\n")
	b.WriteString("    <meta charset=\"UTF-8\">\n")
	b.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&b, "    <title>%s</title>\n", esc(title))
	b.WriteString("    <style>")
	b.WriteString(documentStyle)
	b.WriteString("    </style>\n</head>\n<body>\n")

	b.WriteString("    <div class=\"listing-header\">\n")
	fmt.Fprintf(&b, "        <h1 class=\"listing-title\">%s</h1>\n", esc(title))
	if subtitle := composeSubtitle(result); subtitle != "" {
		fmt.Fprintf(&b, "        <div class=\"listing-subtitle\">%s</div>\n", esc(subtitle))
	}
	if badges := composeBadges(result); badges != "" {
		fmt.Fprintf(&b, "        <div class=\"badges\">%s</div>\n", badges)
	}
	b.WriteString("    </div>\n")

	if len(images) > 0 {
		b.WriteString("    <div class=\"hero-image\">\n")
		fmt.Fprintf(&b, "        <img src=\"%s\" alt=\"Product Image 1\">\n", images[0].DataURI())
		b.WriteString("    </div>\n")
	}
	if len(images) > 1 {
		b.WriteString("    <div class=\"gallery-grid\">\n")
		for i, img := range images[1:] {
			fmt.Fprintf(&b, "        <img src=\"%s\" alt=\"Product Image %d\">\n", img.DataURI(), i+2)
		}
		b.WriteString("    </div>\n")
	}

	b.WriteString("    <div class=\"specs-section\">\n")
	b.WriteString("        <h2 class=\"section-title\">Product Specifications</h2>\n")
	b.WriteString(specsTable(rows))
	b.WriteString("    </div>\n")

	b.WriteString("    <div class=\"description-section\">\n")
	b.WriteString("        <h2 class=\"section-title\">Description</h2>\n")
	fmt.Fprintf(&b, "        <p>%s</p>\n", esc(description))
	b.WriteString("    </div>\n")

	b.WriteString("    " + strings.ReplaceAll(boilerplateBlock, "\n", "\n    ") + "\n")
	b.WriteString("    " + ctaBanner + "\n")
	b.WriteString("</body>\n</html>")

	return b.String()
}

// composeSubtitle joins "{brand} {productName}" and the category with a
// separator, omitting whichever parts are empty.
func composeSubtitle(result llm.Analysis) string {
	var segments []string
	if name := strings.TrimSpace(result.Str("brand") + " " + result.Str("productName")); name != "" {
		segments = append(segments, name)
	}
	if category := result.Str("category"); category != "" {
		segments = append(segments, category)
	}
	return strings.Join(segments, " · ")
}

func composeBadges(result llm.Analysis) string {
	var badges []string
	for _, key := range []string{"brand", "condition", "category"} {
		if v := result.Str(key); v != "" {
			badges = append(badges, fmt.Sprintf(`<span class="badge">%s</span>`, esc(v)))
		}
	}
	return strings.Join(badges, "")
}

func specsTable(rows []Row) string {
	var b strings.Builder
	b.WriteString("        <table class=\"specs-table\">\n")
	b.WriteString("            <thead>\n                <tr><th>Specification</th><th>Details</th></tr>\n            </thead>\n")
	b.WriteString("            <tbody>\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "                <tr><th>%s</th><td>%s</td></tr>\n", esc(row.Label), esc(row.Value))
	}
	b.WriteString("            </tbody>\n")
	b.WriteString("        </table>\n")
	return b.String()
}
