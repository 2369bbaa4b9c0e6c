package factory

import (
	"testing"
)

func TestNewLLMProvider(t *testing.T) {
	tests := []struct {
		name         string
		providerType string
		modelName    string
		baseURL      string
		apiKey       string
		wantErr      bool
	}{
		{name: "ollama", providerType: "ollama", modelName: "llama3", baseURL: "http://localhost:11434"},
		{name: "ollama default base url", providerType: "ollama", modelName: "llama3"},
		{name: "gemini", providerType: "gemini", modelName: "gemini-2.5-flash", apiKey: "key"},
		{name: "gemini without key", providerType: "gemini", wantErr: true},
		{name: "unknown provider", providerType: "anthropic", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewLLMProvider(tt.providerType, tt.modelName, tt.baseURL, tt.apiKey)
			if tt.wantErr {
				if err == nil {
					t.Error("NewLLMProvider() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewLLMProvider() error: %v", err)
			}
			if provider == nil {
				t.Fatal("NewLLMProvider() returned nil provider")
			}
		})
	}
}
