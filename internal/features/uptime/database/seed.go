package database

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"watchly/internal/core"
)

// SeedFile describes users and the websites they own
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
}

// SeedUser is matched on Email, existing users are reused. Password may
// reference environment variables, e.g. ${WATCHLY_ADMIN_PASSWORD}.
type SeedUser struct {
	Name     string        `yaml:"name"`
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Websites []SeedWebsite `yaml:"websites"`
}

type SeedWebsite struct {
	Name          string `yaml:"name"`
	URL           string `yaml:"url"`
	CheckInterval int    `yaml:"check_interval"`
}

// SeedResult counts what a seed run created
type SeedResult struct {
	UsersCreated    int
	WebsitesCreated int
}

// LoadSeedFile parses a YAML seed file
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("read seed file %q", path), err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, core.NewConfigurationError(fmt.Sprintf("parse seed file %q", path), err)
	}

	return &seed, nil
}

// Seed creates missing users and websites. Running it twice is harmless.
func (s *Store) Seed(ctx context.Context, seed *SeedFile) (SeedResult, error) {
	var result SeedResult

	for _, seedUser := range seed.Users {
		user, err := s.GetUserByEmail(ctx, seedUser.Email)
		switch {
		case core.IsNotFound(err):
			password := os.ExpandEnv(seedUser.Password)
			if password == "" {
				return result, core.NewValidationError(fmt.Sprintf("password for %s is empty", seedUser.Email), nil)
			}
			user, err = s.CreateUser(ctx, seedUser.Name, seedUser.Email, password)
			if err != nil {
				return result, err
			}
			result.UsersCreated++
			s.logger.Info("Created user", "email", user.Email)
		case err != nil:
			return result, err
		}

		for _, seedWebsite := range seedUser.Websites {
			exists, err := s.websiteExists(ctx, user.ID, seedWebsite.URL)
			if err != nil {
				return result, err
			}
			if exists {
				s.logger.Debug("Website already seeded, skipping", "url", seedWebsite.URL)
				continue
			}

			website, err := s.CreateWebsite(ctx, user.ID, seedWebsite.Name, seedWebsite.URL, seedWebsite.CheckInterval)
			if err != nil {
				return result, fmt.Errorf("failed to seed website %s: %w", seedWebsite.URL, err)
			}
			result.WebsitesCreated++
			s.logger.Info("Seeded website", "url", website.URL, "name", website.Name)
		}
	}

	s.logger.Info("Database seeded successfully",
		"users_added", result.UsersCreated,
		"websites_added", result.WebsitesCreated)
	return result, nil
}

func (s *Store) websiteExists(ctx context.Context, userID int, url string) (bool, error) {
	var count int
	row, cancel := s.db.QueryRowWithTimeout(ctx, `SELECT COUNT(*) FROM websites WHERE user_id = ? AND url = ?`, userID, url)
	defer cancel()

	if err := row.Scan(&count); err != nil {
		return false, core.NewDatabaseError("failed to check website", err)
	}
	return count > 0, nil
}
