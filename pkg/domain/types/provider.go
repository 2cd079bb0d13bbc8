package types

// Provider represents an answer generation backend
type Provider string

const (
	// ProviderLocal answers from retrieved context only, without any external call
	ProviderLocal Provider = "local"
	// ProviderOpenAI generates answers via the OpenAI API
	ProviderOpenAI Provider = "openai"
	// ProviderGemini generates answers via the Gemini API
	ProviderGemini Provider = "gemini"
)

// AllProviders returns all valid providers
func AllProviders() []Provider {
	return []Provider{
		ProviderLocal,
		ProviderOpenAI,
		ProviderGemini,
	}
}

// IsValid checks if the provider is valid
func (p Provider) IsValid() bool {
	switch p {
	case ProviderLocal, ProviderOpenAI, ProviderGemini:
		return true
	default:
		return false
	}
}

// String returns the string representation of the provider
func (p Provider) String() string {
	return string(p)
}
