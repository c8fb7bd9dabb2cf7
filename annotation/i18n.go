package annotation

import (
	"embed"
	"encoding/json"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localesFS embed.FS

// Locales lists the embedded translations
var Locales = []string{"en", "pt-BR"}

var bundle *i18n.Bundle

func init() {
	bundle = i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	for _, locale := range Locales {
		data, err := localesFS.ReadFile("locales/" + locale + ".json")
		if err != nil {
			logrus.Warnf("i18n: failed to read locale file %s: %v", locale, err)
			continue
		}
		if _, err := bundle.ParseMessageFileBytes(data, locale+".json"); err != nil {
			logrus.Warnf("i18n: failed to parse locale file %s: %v", locale, err)
		}
	}
}

// NewLocalizer returns a localizer for lang, falling back to English
func NewLocalizer(lang string) *i18n.Localizer {
	return i18n.NewLocalizer(bundle, lang, "en")
}

// Localize translates messageID with template data. The message ID itself is
// returned when no translation exists.
func Localize(localizer *i18n.Localizer, messageID string, data map[string]any) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
