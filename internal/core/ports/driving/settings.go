package driving

import "github.com/custodia-labs/docstruct/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings, defaults filled in.
	Get() (*domain.Settings, error)

	// Validate checks the current settings.
	Validate() error

	// Set updates one configuration key and persists it.
	Set(key string, value any) error

	// GetDefaults returns default settings.
	GetDefaults() domain.Settings

	// GetPipelineConfig returns the stage pipeline configuration.
	GetPipelineConfig() domain.PipelineConfig
}
