// Package locale loads the chat's Arabic and English message catalogs
package locale

import (
	"embed"
	"encoding/json"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// DefaultLanguage is the showroom's primary language
const DefaultLanguage = "ar"

//go:embed i18n/*.json
var catalogs embed.FS

func loadBundle() *i18n.Bundle {
	bundle := i18n.NewBundle(language.Arabic)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, name := range []string{"i18n/ar.json", "i18n/en.json"} {
		data, err := catalogs.ReadFile(name)
		if err != nil {
			panic(err)
		}
		bundle.MustParseMessageFileBytes(data, name)
	}
	return bundle
}

// LoadLocalizer returns a localizer for lang, falling back to Arabic
func LoadLocalizer(lang string) *i18n.Localizer {
	bundle := loadBundle()
	if lang != "" {
		return i18n.NewLocalizer(bundle, lang, DefaultLanguage)
	}
	return i18n.NewLocalizer(bundle, DefaultLanguage)
}

// Text localizes messageID with optional template data
func Text(localizer *i18n.Localizer, messageID string, data map[string]interface{}) string {
	return localizer.MustLocalize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
}
