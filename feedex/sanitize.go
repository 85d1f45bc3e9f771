package feedex

import "github.com/microcosm-cc/bluemonday"

// pagePolicy keeps the structural skeleton of a captured page while
// stripping scripts, styles, frames and event handlers. The attribute
// whitelist is exactly what the extractors key on.
var pagePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"html", "head", "body", "main", "article", "section", "div",
		"span", "p", "a", "img", "time", "button", "ul", "ol", "li",
		"h1", "h2", "h3", "h4", "h5", "h6", "strong", "em", "b", "i",
		"br", "blockquote", "figure", "figcaption", "video",
	)
	p.AllowAttrs(
		"class", "id", "role", "href", "src", "alt", "title",
		"datetime", "width", "height", "dir", "tabindex",
		"aria-label", "aria-hidden", "contenteditable",
		"data-urn", "data-id", "data-activity-urn", "data-test-id",
	).Globally()
	return p
}()

// Sanitize strips active content from raw page HTML before parsing.
func Sanitize(raw string) string {
	return pagePolicy.Sanitize(raw)
}
