package llm

import "context"

// MockClient is a Client whose behavior is set per test.
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier ModelTier) (string, error)
}

// GenerateContent calls GenerateContentFunc, or returns "" when unset.
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

// GenerateJSON calls GenerateJSONFunc, or returns "{}" when unset.
func (m *MockClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "{}", nil
}

// GetModel returns a fixed name.
func (m *MockClient) GetModel(ModelTier) string { return "mock" }

// Close is a no-op.
func (m *MockClient) Close() error { return nil }
