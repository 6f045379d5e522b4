// Package ai holds the provider-neutral model plumbing: credential-type
// detection, the model catalog / alias tables, and the normalizer that
// reconciles a workflow's requested model and parameters with the provider
// its API key actually belongs to.
package ai

import (
	"log/slog"
	"strconv"
	"strings"
)

// KeyType identifies which provider an API key belongs to, detected from
// the key's prefix signature.
type KeyType string

const (
	// KeyTypeOpenAI marks OpenAI credentials ("sk-" prefix).
	KeyTypeOpenAI KeyType = "openai"

	// KeyTypeGemini marks Google Gemini credentials ("AIzaSy" prefix).
	KeyTypeGemini KeyType = "gemini"
)

// DetectKeyType detects the provider from the credential prefix. Google API
// keys start with "AIzaSy"; OpenAI keys start with "sk-". Unrecognized
// prefixes fall back to OpenAI for backward compatibility with stored
// workflows.
func DetectKeyType(apiKey string) KeyType {
	if strings.HasPrefix(apiKey, "AIzaSy") {
		return KeyTypeGemini
	}
	return KeyTypeOpenAI
}

// Catalog describes the models a single provider accepts: the set of valid
// canonical identifiers, a table resolving known alias variants, and the
// default substituted when a requested model is not in the valid set after
// alias resolution.
type Catalog struct {
	Valid   []string
	Aliases map[string]string
	Default string
}

// Resolve canonicalizes a requested model name against the catalog. Alias
// lookup is case-insensitive; a model outside the valid set (after alias
// resolution) is substituted with the catalog default. The second return
// reports whether a correction happened.
func (c Catalog) Resolve(requested string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(requested))

	if canonical, known := c.Aliases[lowered]; known {
		return canonical, canonical != requested
	}
	for _, valid := range c.Valid {
		if lowered == valid {
			return valid, valid != requested
		}
	}
	return c.Default, true
}

// Normalized is the result of normalizing a workflow's LLM configuration:
// the detected provider, the canonical model identifier valid for that
// provider, and a temperature coerced and clamped to a safe range.
type Normalized struct {
	Provider    KeyType
	Model       string
	Temperature float64
}

// Normalizer canonicalizes model identifiers and numeric parameters per
// detected credential type. It guards against a workflow configured for one
// provider being silently fed a model name belonging to the other
// provider's catalog. Catalogs are injected data; use DefaultNormalizer
// for the stock tables.
type Normalizer struct {
	catalogs map[KeyType]Catalog
	logger   *slog.Logger
}

// NewNormalizer creates a Normalizer from per-provider catalogs. The logger
// may be nil, in which case slog.Default() is used.
func NewNormalizer(catalogs map[KeyType]Catalog, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{catalogs: catalogs, logger: logger}
}

// DefaultNormalizer returns a Normalizer loaded with the stock OpenAI and
// Gemini catalogs.
func DefaultNormalizer() *Normalizer {
	return NewNormalizer(map[KeyType]Catalog{
		KeyTypeOpenAI: {
			Valid: []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-3.5-turbo"},
			Aliases: map[string]string{
				"gpt-4": "gpt-4o",
			},
			Default: "gpt-4o-mini",
		},
		KeyTypeGemini: {
			Valid: []string{"gemini-1.5-pro", "gemini-1.5-flash", "gemini-pro"},
			Aliases: map[string]string{
				"gemini":     "gemini-1.5-flash",
				"gemini api": "gemini-1.5-flash",
				"gemini-api": "gemini-1.5-flash",
			},
			Default: "gemini-1.5-flash",
		},
	}, nil)
}

// Normalize resolves the provider from the API key, canonicalizes the
// requested model against that provider's catalog, and coerces the
// temperature. Corrections are logged at Info so misconfigured workflows
// remain diagnosable.
func (n *Normalizer) Normalize(apiKey, requestedModel string, requestedTemperature any) Normalized {
	provider := DetectKeyType(apiKey)

	catalog := n.catalogs[provider]
	model, corrected := catalog.Resolve(requestedModel)
	if corrected {
		n.logger.Info("corrected model for provider",
			"provider", string(provider),
			"requested", requestedModel,
			"model", model,
		)
	}

	return Normalized{
		Provider:    provider,
		Model:       model,
		Temperature: CoerceTemperature(requestedTemperature),
	}
}

const (
	defaultTemperature = 0.7
	minTemperature     = 0.0
	maxTemperature     = 2.0
)

// CoerceTemperature converts an arbitrary config value into a usable
// sampling temperature. Missing or non-numeric input defaults to 0.7;
// the result is clamped to [0.0, 2.0].
func CoerceTemperature(raw any) float64 {
	var value float64
	switch typed := raw.(type) {
	case float64:
		value = typed
	case float32:
		value = float64(typed)
	case int:
		value = float64(typed)
	case int64:
		value = float64(typed)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return defaultTemperature
		}
		value = parsed
	default:
		return defaultTemperature
	}

	if value < minTemperature {
		return minTemperature
	}
	if value > maxTemperature {
		return maxTemperature
	}
	return value
}
