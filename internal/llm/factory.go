package llm

import (
	"time"
)

// NewProviderFromConfig creates a Provider from config fields. The arg is
// the endpoint for ollama and the AWS region for bedrock.
func NewProviderFromConfig(provider, arg, model string, timeout time.Duration) (Provider, error) {
	switch provider {
	case "bedrock":
		return NewBedrock(arg, model, timeout)
	default:
		// ollama is the default local provider
		return NewClient(arg, model, timeout), nil
	}
}
