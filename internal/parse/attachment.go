package parse

import "strings"

var mediaPlaceholders = map[string]struct{}{
	"<media omitted>":         {},
	"<multimedia omitido>":    {},
	"<archivo omitido>":       {},
	"<mídia oculta>":          {},
	"<medien ausgeschlossen>": {},
	"<médias omis>":           {},
	"image omitted":           {},
	"video omitted":           {},
	"audio omitted":           {},
	"sticker omitted":         {},
	"imagen omitida":          {},
	"video omitido":           {},
	"audio omitido":           {},
	"sticker omitido":         {},
}

// resolveAttachment returns the first name in names that occurs in body.
func resolveAttachment(body string, names []string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	for _, name := range names {
		if name != "" && strings.Contains(body, name) {
			return name
		}
	}
	return ""
}

func isMediaPlaceholder(body string) bool {
	_, ok := mediaPlaceholders[strings.ToLower(strings.TrimSpace(stripBidi(body)))]
	return ok
}
