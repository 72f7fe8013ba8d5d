package ai

import (
	"context"

	"github.com/parakeep/organizer/internal/models"
)

// Classification is the LLM's answer for a note.
type Classification struct {
	Category   models.Category `json:"category"`
	FolderName string          `json:"folder_name"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning,omitempty"`
}

// Classifier is the interface for LLM classification providers.
type Classifier interface {
	// ClassifyNote classifies a note into a PARA category and suggests a
	// folder name for it.
	ClassifyNote(ctx context.Context, title, content string) (*Classification, error)
}

// ProviderFactory creates a classifier based on the provider type.
type ProviderFactory func(config map[string]string) (Classifier, error)

// ProviderRegistry stores available classification providers.
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory.
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name.
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (Classifier, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found.
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "classification provider not found: " + e.Name
}
