// Package i18n renders the bot's localized strings.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported languages, in matcher preference order.
var Supported = []language.Tag{language.Italian, language.English}

// Fallback is used when a chat language has no translation.
const Fallback = "en"

var matcher = language.NewMatcher(Supported)

// Codes returns the base codes of the supported languages.
func Codes() []string {
	out := make([]string, 0, len(Supported))
	for _, t := range Supported {
		base, _ := t.Base()
		out = append(out, base.String())
	}
	return out
}

// IsSupported reports whether code is one of the supported base codes.
func IsSupported(code string) bool {
	for _, c := range Codes() {
		if c == code {
			return true
		}
	}
	return false
}

// Match maps a user language code such as "it-IT" or "en_US" to a supported
// base code. It reports false when nothing better than a guess was found.
func Match(code string) (string, bool) {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	if code == "" {
		return "", false
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return "", false
	}
	base, _ := Supported[idx].Base()
	return base.String(), true
}

// Render formats the template id in lang with args. Missing translations fall
// back to English; unknown ids render as the id itself.
func Render(id, lang string, args ...any) string {
	variants, ok := templates[id]
	if !ok {
		return id
	}
	tmpl, ok := variants[lang]
	if !ok {
		lang = Fallback
		tmpl = variants[Fallback]
	}
	p := message.NewPrinter(language.Make(lang))
	return strings.TrimSpace(p.Sprintf(tmpl, args...))
}

// Has reports whether id is a known template.
func Has(id string) bool {
	_, ok := templates[id]
	return ok
}
