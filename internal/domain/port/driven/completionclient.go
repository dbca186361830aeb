package driven

import "context"

// CompletionClient defines the driven port for the external chat completion API.
type CompletionClient interface {
	// Complete sends content as the single user message to model and returns
	// the first choice's message content. A response without a usable choice
	// yields model.ErrUnexpectedResponse; network and API failures are wrapped
	// with model.ErrTransport.
	Complete(ctx context.Context, apiKey, model, content string) (string, error)
}

// ModelCatalog lists the model identifiers the API key can use.
type ModelCatalog interface {
	ListModels(ctx context.Context, apiKey string) ([]string, error)
}
