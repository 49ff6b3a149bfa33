package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSeedIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Setenv("WATCHLY_TEST_PASSWORD", "hunter22")
	path := filepath.Join(t.TempDir(), "seed.yaml")
	contents := `
users:
  - name: Owner
    email: owner@example.com
    password: ${WATCHLY_TEST_PASSWORD}
    websites:
      - name: Example
        url: https://example.com
      - url: https://example.org
        check_interval: 10
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}

	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile failed: %v", err)
	}

	result, err := store.Seed(ctx, seed)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if result.UsersCreated != 1 || result.WebsitesCreated != 2 {
		t.Errorf("Unexpected first seed result: %+v", result)
	}

	result, err = store.Seed(ctx, seed)
	if err != nil {
		t.Fatalf("Second seed failed: %v", err)
	}
	if result.UsersCreated != 0 || result.WebsitesCreated != 0 {
		t.Errorf("Expected second seed to be a no-op, got %+v", result)
	}

	websites, err := store.ListWebsites(ctx)
	if err != nil {
		t.Fatalf("ListWebsites failed: %v", err)
	}
	if len(websites) != 2 {
		t.Fatalf("Expected 2 websites, got %d", len(websites))
	}
	if websites[1].Name != "https://example.org" || websites[1].CheckInterval != 10 {
		t.Errorf("Unexpected defaulted website: %+v", websites[1])
	}
}

func TestSeedRejectsEmptyPassword(t *testing.T) {
	store := newTestStore(t)

	seed := &SeedFile{Users: []SeedUser{{Name: "Owner", Email: "owner@example.com", Password: "${WATCHLY_UNSET_PASSWORD}"}}}
	if _, err := store.Seed(context.Background(), seed); err == nil {
		t.Error("Expected error for empty password")
	}
}
