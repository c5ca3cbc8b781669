// Package ai adapts interchangeable LLM backends to one contract: turn a
// free-text prompt into an ordered list of "Song - Artist" recommendations.
package ai

import (
	"context"
	"fmt"
)

// SizeTier selects the target playlist length.
type SizeTier string

const (
	SizeShort  SizeTier = "short"
	SizeMedium SizeTier = "medium"
	SizeLong   SizeTier = "long"
)

// DiscoveryLevel steers the prompt between mainstream and niche picks.
type DiscoveryLevel string

const (
	DiscoverySafe        DiscoveryLevel = "safe"
	DiscoveryAdventurous DiscoveryLevel = "adventurous"
)

// Options carries the generation knobs shared by every backend.
type Options struct {
	SizeTier       SizeTier
	DiscoveryLevel DiscoveryLevel
	AllowExplicit  bool
}

// Provider is implemented by each LLM backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string, opts Options) ([]string, error)
}

// ErrorKind classifies provider failures for the orchestrator's taxonomy.
type ErrorKind string

const (
	KindAuth          ErrorKind = "auth"
	KindRateLimited   ErrorKind = "rate_limited"
	KindUnavailable   ErrorKind = "unavailable"
	KindEmptyResponse ErrorKind = "empty_response"
)

// ProviderError is the only error type Generate returns.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s provider: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ProviderError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	pe, ok := err.(*ProviderError)
	return ok && pe.Kind == kind
}

// trackCount maps a size tier to the number of songs requested from the model.
func trackCount(tier SizeTier) int {
	switch tier {
	case SizeShort:
		return 10
	case SizeMedium:
		return 20
	case SizeLong:
		return 30
	default:
		return 15
	}
}

// discoveryInstruction is the prompt fragment injected for the discovery level.
func discoveryInstruction(level DiscoveryLevel) string {
	switch level {
	case DiscoverySafe:
		return "Focus on popular and well-known songs that most people would recognize."
	case DiscoveryAdventurous:
		return "Include some lesser-known songs, independent artists, or more experimental tracks for musical discovery."
	default:
		return "Balance between known songs and some interesting discoveries."
	}
}

func buildSystemPrompt(opts Options, count int) string {
	explicit := ""
	if !opts.AllowExplicit {
		explicit = "Avoid songs with explicit content.\n"
	}
	return fmt.Sprintf(
		"You are a music expert. Generate specific song recommendations with artist names.\n%s\n%sRespond only with a numbered list of %d songs in format: \"Song Name - Artist\"",
		discoveryInstruction(opts.DiscoveryLevel), explicit, count)
}

func buildUserPrompt(prompt string, count int) string {
	return fmt.Sprintf("Create a playlist with %d songs based on: %s", count, prompt)
}
