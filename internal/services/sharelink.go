package services

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/tyler-smith/go-bip39/wordlists"

	"github.com/leonardobora/GeraAI/internal/store"
)

// wordlist is the BIP39 English wordlist (2048 words).
// Two words plus a number give 2048 × 2048 × 100 = 419 million combinations.
var wordlist = wordlists.English

// ShareLinkService generates unique, human-readable share tokens for
// playlists. Tokens follow the pattern "word-word-number"
// (e.g., "apple-river-42").
type ShareLinkService struct {
	store *store.Store
}

func NewShareLinkService(s *store.Store) *ShareLinkService {
	return &ShareLinkService{store: s}
}

// Generate creates a unique share token, retrying if collisions occur.
// Returns an error if no unique token can be found after 100 attempts.
func (s *ShareLinkService) Generate(ctx context.Context) (string, error) {
	maxAttempts := 100
	for i := 0; i < maxAttempts; i++ {
		// The top-level rand functions are safe for concurrent use; share
		// creation handlers can run in parallel.
		word1 := wordlist[rand.Intn(len(wordlist))]
		word2 := wordlist[rand.Intn(len(wordlist))]
		num := rand.Intn(100)
		token := fmt.Sprintf("%s-%s-%d", word1, word2, num)

		exists, err := s.store.ShareTokenExists(ctx, token)
		if err != nil {
			return "", fmt.Errorf("failed to check token existence: %w", err)
		}

		if !exists {
			return token, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique token after %d attempts", maxAttempts)
}
