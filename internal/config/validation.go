package config

import (
	"fmt"
	"log/slog"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key is required for every generative call; absence is fatal.
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.TextModel == "" {
		return fmt.Errorf("%w: text_model cannot be empty", ErrInvalidModelName)
	}
	if c.ImageModel == "" {
		return fmt.Errorf("%w: image_model cannot be empty", ErrInvalidModelName)
	}

	// The workflow slices the fixed template list, so the count is bounded
	// by the number of templates.
	if c.TotalQuestions < 1 || c.TotalQuestions > MaxTotalQuestions {
		return fmt.Errorf("%w: must be between 1 and %d, got %d",
			ErrInvalidQuestionCount, MaxTotalQuestions, c.TotalQuestions)
	}

	// The session registry's sweep ticker requires a positive interval.
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive, got %s",
			ErrInvalidSessionTTL, c.SessionTTL)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "kidcreatives_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"warning", "change postgres_password for production deployments")
	}

	// Modern SSL modes only - the deprecated allow/prefer modes are
	// vulnerable to MITM.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	if c.BlobDir == "" {
		return fmt.Errorf("%w: blob_dir cannot be empty", ErrInvalidBlobDir)
	}

	return nil
}

// ValidateServe validates the additional requirements of serve mode.
// The cookie secret signs the owner cookie; a short secret is as bad as
// no secret.
func (c *Config) ValidateServe() error {
	if len(c.CookieSecret) < 32 {
		return fmt.Errorf("%w: KIDCREATIVES_COOKIE_SECRET must be at least 32 bytes (got %d)",
			ErrMissingCookieSecret, len(c.CookieSecret))
	}
	return nil
}
