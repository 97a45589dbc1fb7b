package translation

import (
	"github.com/leonelquinteros/gotext"
)

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "zh_TW"
	}

	return lang
}

// Translate returns the localized form of msgID, falling back to msgID
// itself when no catalog entry exists.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
