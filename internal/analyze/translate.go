package analyze

import (
	"context"
	"log"
	"strings"
	"time"

	"newsbrief/internal/config"
)

const (
	translateTimeout     = 20 * time.Second
	translateTemperature = 0.3
	translateMaxTokens   = 200
)

// translateTitle requests a translation of the title into the target
// language. The second return value is false when the title is kept
// untouched: already in the target script, no provider, or any call
// failure.
func (e *Enricher) translateTitle(ctx context.Context, title string) (string, bool) {
	if title == "" || containsCJK(title) {
		return "", false
	}

	langName, ok := config.TargetLanguages[e.targetLanguage]
	if !ok {
		langName = config.TargetLanguages["zh-CN"]
	}

	prompt := "Translate the following headline into " + langName +
		". Return only the translation, with no explanation or any other text:\n\n" + title

	callCtx, cancel := context.WithTimeout(ctx, translateTimeout)
	defer cancel()

	translated, err := e.provider.Generate(callCtx, prompt, translateMaxTokens, translateTemperature)
	if err != nil {
		log.Printf("Translation failed for %q: %v", title, err)
		return "", false
	}

	translated = strings.TrimSpace(translated)
	if translated == "" {
		return "", false
	}
	return translated, true
}

// containsCJK reports whether the string contains a CJK Unified
// Ideograph, meaning the title is already in the target script.
func containsCJK(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}
