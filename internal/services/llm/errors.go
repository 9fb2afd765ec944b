package llm

import "fmt"

// TransportError wraps a provider transport failure, surfaced to the
// Enrichment Stage as LLMTransportError per spec.md §4.3 and §7.
type TransportError struct {
	Provider ProviderType
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm: %s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func newTransportError(provider ProviderType, err error) *TransportError {
	return &TransportError{Provider: provider, Err: err}
}
