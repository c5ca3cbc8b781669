package ai

// Settings are a user's stored AI preferences. An empty APIKey means the
// process-wide default key for that provider, when configured.
type Settings struct {
	Provider       string
	APIKey         string
	SizeTier       SizeTier
	DiscoveryLevel DiscoveryLevel
	AllowExplicit  bool
}

// DefaultKeys holds the server-configured fallback credentials per provider.
type DefaultKeys struct {
	Perplexity string
	OpenAI     string
	Gemini     string
}

// Factory builds a Provider for a user's settings.
type Factory struct {
	defaults DefaultKeys
}

func NewFactory(defaults DefaultKeys) *Factory {
	return &Factory{defaults: defaults}
}

// ForSettings resolves the backend and credential for the given settings.
// Unrecognized provider names fall back to perplexity. A provider with
// neither a user key nor a server default yields a KindAuth error so the
// orchestrator can surface provider_auth_error without a network call.
func (f *Factory) ForSettings(s Settings) (Provider, error) {
	name := s.Provider
	switch name {
	case "openai", "gemini", "perplexity":
	default:
		name = "perplexity"
	}

	key := s.APIKey
	if key == "" {
		switch name {
		case "openai":
			key = f.defaults.OpenAI
		case "gemini":
			key = f.defaults.Gemini
		default:
			key = f.defaults.Perplexity
		}
	}
	if key == "" {
		return nil, &ProviderError{Provider: name, Kind: KindAuth, Message: "no api key configured"}
	}

	switch name {
	case "openai":
		return NewOpenAI(key), nil
	case "gemini":
		return NewGemini(key), nil
	default:
		return NewPerplexity(key), nil
	}
}

// Options extracts the generation knobs from the settings.
func (s Settings) Options() Options {
	return Options{
		SizeTier:       s.SizeTier,
		DiscoveryLevel: s.DiscoveryLevel,
		AllowExplicit:  s.AllowExplicit,
	}
}
