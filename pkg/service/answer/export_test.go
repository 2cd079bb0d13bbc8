package answer

// Export private functions for testing
var (
	BuildUserPrompt = buildUserPrompt
	TruncateTurns   = truncateTurns
	RenderHistory   = renderHistory
)
