package ai

import (
	"strings"
	"testing"

	"chat-relay/contract"
	"chat-relay/domain"

	"github.com/stretchr/testify/require"
)

func TestBuildSystem_Picks_The_Tone(t *testing.T) {
	req := require.New(t)
	user := domain.User{ID: "bob", Name: "Bob"}

	system := buildSystem(contract.GenerateRequest{
		OnBehalfOf: user,
		Mode:       domain.AutoReplyProfessional,
	})

	req.Contains(system, "professional assistant")
	req.Contains(system, "replying on behalf of Bob")
}

func TestBuildSystem_Unknown_Mode_Falls_Back_To_Friendly(t *testing.T) {
	req := require.New(t)

	system := buildSystem(contract.GenerateRequest{
		OnBehalfOf: domain.User{Name: "Bob"},
		Mode:       domain.AutoReplyMode("sarcastic"),
	})

	req.Contains(system, "friendly and casual")
}

func TestBuildPrompt_Lays_Out_History_In_Order(t *testing.T) {
	req := require.New(t)

	prompt := buildPrompt(contract.GenerateRequest{
		History: []contract.HistoryEntry{
			{SenderName: "Alice", Text: "lunch today?"},
			{SenderName: "Bob", Text: "maybe, where?"},
			{SenderName: "Alice", Text: "the usual place"},
		},
	})

	req.Contains(prompt, "Alice: lunch today?")
	req.Contains(prompt, "Bob: maybe, where?")
	req.True(strings.Index(prompt, "lunch today?") < strings.Index(prompt, "maybe, where?"))
	req.True(strings.HasPrefix(prompt, "Conversation history:"))
	req.Contains(prompt, "Generate a brief, contextual auto-reply message:")
}
