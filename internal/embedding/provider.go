package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks braindump/internal/embedding Provider

import "context"

// Provider generates embedding vectors for text.
type Provider interface {
	// Embed returns the vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Dimension returns the vector size, or 0 if not yet known.
	Dimension() int
	// ModelName identifies the model, so cached vectors from different models never mix.
	ModelName() string
}
