package services

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/leonardobora/GeraAI/internal/database"
	"github.com/leonardobora/GeraAI/internal/store"
)

func newShareLinkService(t *testing.T) *ShareLinkService {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return NewShareLinkService(store.New(db))
}

func TestShareTokenFormat(t *testing.T) {
	svc := newShareLinkService(t)

	pattern := regexp.MustCompile(`^[a-z]+-[a-z]+-\d{1,2}$`)
	for i := 0; i < 10; i++ {
		token, err := svc.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		if !pattern.MatchString(token) {
			t.Errorf("token %q does not match word-word-number", token)
		}
	}
}

func TestShareTokenConcurrentGeneration(t *testing.T) {
	svc := newShareLinkService(t)

	const goroutines = 16
	errs := make(chan error, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				if _, err := svc.Generate(context.Background()); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Generate failed: %v", err)
	}
}
