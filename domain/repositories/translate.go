package repositories

import "context"

// Translator abstracts text translation services.
type Translator interface {
	// Translate converts text from the source to the target language.
	// When source equals target, or text is blank, the input is returned
	// unchanged without any remote call. This identity shortcut is a
	// contract, not an optimization: callers rely on it for cost and
	// latency, and tests assert zero network traffic for it.
	Translate(ctx context.Context, text, source, target string) (string, error)
}
