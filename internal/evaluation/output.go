package evaluation

import (
	"encoding/base64"
	"html"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/microcosm-cc/bluemonday"
)

var markupPolicy = bluemonday.StrictPolicy()

// ComparisonText picks the text compared against the expected output and
// strips markup from it when it is an HTML document. Image challenges prefer
// the image description, then the generated output unless it is the image
// itself, then the prompt. Code output is never rewritten.
func ComparisonText(module ModuleType, output, imageDescription, prompt string) string {
	text := output
	if module == ModuleImage {
		switch {
		case strings.TrimSpace(imageDescription) != "":
			text = imageDescription
		case strings.TrimSpace(output) != "" && !IsImagePayload(output):
			text = output
		default:
			text = prompt
		}
	}

	if module == ModuleCode {
		return text
	}
	return StripMarkup(text)
}

// StripMarkup removes tags and unescapes entities, but only when the text is
// detected as HTML. Plain text such as "a<b" or "List<String>" is returned as is.
func StripMarkup(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if !mimetype.Detect([]byte(text)).Is("text/html") {
		return text
	}
	return strings.TrimSpace(html.UnescapeString(markupPolicy.Sanitize(text)))
}

// IsImagePayload reports whether output is an image URL, an image data URI or
// raw base64 image bytes rather than a text description.
func IsImagePayload(output string) bool {
	trimmed := strings.TrimSpace(output)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return true
	case strings.HasPrefix(lower, "data:"):
		header, body, found := strings.Cut(trimmed, ",")
		if !found {
			return false
		}
		if strings.HasPrefix(strings.ToLower(header), "data:image/") {
			return true
		}
		if !strings.HasSuffix(strings.ToLower(header), ";base64") {
			return false
		}
		return detectImage(body)
	case len(trimmed) >= 32 && !strings.ContainsAny(trimmed, " \n\t"):
		return detectImage(trimmed)
	default:
		return false
	}
}

func detectImage(encoded string) bool {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return false
	}
	return strings.HasPrefix(mimetype.Detect(raw).String(), "image/")
}
