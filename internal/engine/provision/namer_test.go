package provision

import (
	"strings"
	"testing"
)

func TestSanitizeChannelName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "esx_banking-logs", "esx-banking-logs"},
		{"uppercase", "MyResource-logs", "myresource-logs"},
		{"spaces collapse", "my  cool   resource-logs", "my-cool-resource-logs"},
		{"discord word replaced", "discord-logger-logs", "disc-logger-logs"},
		{"discord inside word kept", "discordia-logs", "discordia-logs"},
		{"clyde word replaced", "clyde-alerts-logs", "assistant-alerts-logs"},
		{"invalid chars stripped", "loot!box#v2-logs", "lootboxv2-logs"},
		{"dash runs collapsed", "a---b--c-logs", "a-b-c-logs"},
		{"edge dashes trimmed", "--weird--", "weird"},
		{"everything stripped falls back", "!!!", "resource-logs"},
		{"long name capped", strings.Repeat("a", 120), strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeChannelName(tt.input); got != tt.expected {
				t.Errorf("SanitizeChannelName(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestChannelName(t *testing.T) {
	if got := ChannelName("esx_banking"); got != "esx-banking-logs" {
		t.Errorf("Expected esx-banking-logs, got %s", got)
	}
	if got := ChannelName("Discord Tools"); got != "disc-tools-logs" {
		t.Errorf("Expected disc-tools-logs, got %s", got)
	}
}

func TestWebhookName(t *testing.T) {
	if got := WebhookName("esx_banking", 1, 1); got != "esx_banking" {
		t.Errorf("Single webhook keeps the resource name, got %s", got)
	}
	if got := WebhookName("esx_banking", 2, 3); got != "esx_banking-2" {
		t.Errorf("Expected esx_banking-2, got %s", got)
	}
}
