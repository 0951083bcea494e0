package port

import "context"

// Generator produces text from a prompt using a language model.
type Generator interface {
	// Generate sends the prompt and returns the complete generated text.
	// The call is synchronous and non-streaming.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
