// Package classify decides which inputs are C or C++ sources worth handing
// to the analyzers.
package classify

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/user/secmerge/pkg/config"
	"github.com/user/secmerge/pkg/logging"
)

// Unknown is returned when no language could be determined.
const Unknown = "unknown"

// Extensions are the lower-cased suffixes treated as C family sources. They
// double as the accepted language names.
var Extensions = []string{"c", "c++", "cpp", "cxx", "cp", "cc", "h", "hpp", "hxx", "hh"}

type Classifier interface {
	// Language returns the lower-cased language name of path, or Unknown.
	Language(ctx context.Context, path string) string
}

// IsC reports whether lang names a language the analyzers understand.
func IsC(lang string) bool {
	lang = strings.ToLower(lang)
	for _, e := range Extensions {
		if lang == e {
			return true
		}
	}
	return false
}

// ExtensionClassifier trusts the file suffix.
type ExtensionClassifier struct{}

func (ExtensionClassifier) Language(_ context.Context, path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if IsC(ext) {
		return ext
	}
	return Unknown
}

// New returns the classifier cfg asks for. A content classifier that cannot
// be built falls back to extensions with a warning.
func New(ctx context.Context, cfg *config.Config) Classifier {
	if !cfg.Classifier.ApplyGuesslang {
		return ExtensionClassifier{}
	}

	provider := cfg.Classifier.Provider
	if provider != "gemini" {
		logging.Warnf("classifier provider %q is not supported, using file extensions", provider)
		return ExtensionClassifier{}
	}
	apiKey := cfg.GetAPIKey(provider)
	if apiKey == "" {
		logging.Warnf("no API key for %s, using file extensions. Run 'secmerge config set-key'", provider)
		return ExtensionClassifier{}
	}

	g, err := NewGemini(ctx, apiKey, cfg.Classifier.Model)
	if err != nil {
		logging.Warnf("gemini classifier unavailable, using file extensions: %v", err)
		return ExtensionClassifier{}
	}
	return g
}
