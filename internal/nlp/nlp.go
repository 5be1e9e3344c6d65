// Package nlp wraps the external language providers (translation,
// transcription, explanation) behind narrow interfaces with bounded
// retries and documented fallbacks.
package nlp

import (
	"context"
	"errors"
	"regexp"
)

type Translator interface {
	// Translate renders text into Russian. sourceHint is an ISO language
	// code or "auto".
	Translate(ctx context.Context, text, sourceHint string) (string, error)
}

type Transcriber interface {
	// Transcribe turns an audio clip into Hebrew text. langHint may be empty.
	Transcribe(ctx context.Context, audio []byte, langHint string) (string, error)
}

type Explainer interface {
	// Explain produces a grammar/slang breakdown of a Hebrew phrase.
	Explain(ctx context.Context, text string) (string, error)
}

// ErrPermanent marks provider failures that retrying cannot fix (bad
// credentials, malformed request). Providers wrap such errors with it;
// callers surface them immediately so the operator knows to fix config.
var ErrPermanent = errors.New("permanent_provider_error")

func isPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

func errClass(err error) string {
	if isPermanent(err) {
		return "permanent"
	}
	return "transient"
}

var hebrewRe = regexp.MustCompile(`\p{Hebrew}`)

// SourceHint returns "he" when the text contains Hebrew letters, "auto"
// otherwise.
func SourceHint(text string) string {
	if hebrewRe.MatchString(text) {
		return "he"
	}
	return "auto"
}
