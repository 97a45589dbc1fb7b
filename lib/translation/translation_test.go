package translation

import (
	"testing"

	"github.com/leonelquinteros/gotext"
)

func TestGetLanguage(t *testing.T) {
	gotext.Configure("locales", "zh_tw", "default")

	if lang := GetLanguage(); lang == "" {
		t.Error("expected a configured or fallback language, got empty string")
	}
}

func TestTranslate_FallsBackToMessageID(t *testing.T) {
	// With no catalog entry the message id itself is the reply text.
	msg := "📭 目前沒有任何股票提醒"
	if got := Translate(msg); got != msg {
		t.Errorf("expected fallback to message id, got %q", got)
	}
}
