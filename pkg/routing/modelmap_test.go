package routing

import (
	"testing"

	"meridian-hq/meridian/pkg/providers"
)

func TestModelMap_Map(t *testing.T) {
	aliases := map[string]map[string]string{
		"gpt-4": {
			"deepseek": "deepseek-chat",
			"ollama":   "llama3",
		},
		"gpt-3.5-turbo": {
			"deepseek": "deepseek-chat",
		},
	}
	m := NewModelMap(aliases)

	deepseek := providers.NewProvider(providerCfg("deepseek", 1, "deepseek-chat", "deepseek-coder"))
	ollama := providers.NewProvider(providerCfg("ollama", 1, "llama3"))
	azure := providers.NewProvider(providerCfg("azure", 1, "gpt-4o", "gpt-3.5-turbo"))

	tests := []struct {
		name      string
		requested string
		provider  *providers.Provider
		want      string
	}{
		{"alias entry wins", "gpt-4", deepseek, "deepseek-chat"},
		{"alias entry per provider", "gpt-4", ollama, "llama3"},
		{"alias without entry falls to default", "gpt-3.5-turbo", ollama, "llama3"},
		{"alias beats native serving", "gpt-3.5-turbo", azure, "gpt-4o"},
		{"native model passes through", "deepseek-coder", deepseek, "deepseek-coder"},
		{"unknown model falls to default", "claude-3-opus", azure, "gpt-4o"},
		{"empty model falls to default", "", deepseek, "deepseek-chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Map(tt.requested, tt.provider); got != tt.want {
				t.Errorf("Map(%q, %s) = %q, want %q", tt.requested, tt.provider.Name(), got, tt.want)
			}
		})
	}
}

func TestModelMap_Map_ProviderWithoutModels(t *testing.T) {
	m := NewModelMap(nil)
	bare := providers.NewProvider(providerCfg("bare", 1))

	if got := m.Map("gpt-4", bare); got != "gpt-4" {
		t.Errorf("Map(gpt-4, bare) = %q, want the request untouched", got)
	}
}

func TestModelMap_Map_NilAliases(t *testing.T) {
	m := NewModelMap(nil)
	deepseek := providers.NewProvider(providerCfg("deepseek", 1, "deepseek-chat"))

	if got := m.Map("deepseek-chat", deepseek); got != "deepseek-chat" {
		t.Errorf("Map(native) = %q, want deepseek-chat", got)
	}
	if got := m.Map("gpt-4", deepseek); got != "deepseek-chat" {
		t.Errorf("Map(unknown) = %q, want default deepseek-chat", got)
	}
}
