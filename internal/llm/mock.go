package llm

import "context"

// MockClient permite tests sin llamar a un LLM real.
type MockClient struct {
	Response string
	Err      error
}

func (m *MockClient) GenerateReply(ctx context.Context, turns []Turn) (string, error) {
	return m.Response, m.Err
}
