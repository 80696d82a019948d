// ABOUTME: System persona and request shaping shared across providers
// ABOUTME: Builds completion-style prompts and chat-style message arrays from stored history

package gateway

import (
	"strings"

	"github.com/2389/mindease/internal/store"
)

// historyWindow is the number of most recent persisted turns included in
// every provider request. Fixed to bound payload size and cost.
const historyWindow = 10

// systemPrompt is the assistant persona and safety guidance sent to every
// provider.
const systemPrompt = `You are a compassionate AI companion designed to support teenagers with their mental wellness. Your role is to:

1. Listen actively and empathetically to their concerns
2. Provide gentle, non-judgmental support and validation
3. Offer practical coping strategies and mindfulness techniques
4. Encourage healthy habits and positive thinking patterns
5. Know when to suggest seeking professional help for serious issues

Guidelines:
- Use a warm, friendly, and age-appropriate tone
- Be supportive but not overly casual
- Avoid giving medical advice or diagnoses
- Encourage self-reflection and personal growth
- Respect boundaries and privacy
- If someone mentions self-harm or suicide, gently encourage them to reach out to a trusted adult, counselor, or crisis helpline

Remember: You're here to provide emotional support and practical wellness tips, not to replace professional mental health care. Keep responses concise but meaningful, typically 2-3 sentences unless more detail is specifically requested.`

// chatMessage is a role-tagged message for chat-style provider APIs.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// recentHistory returns at most the last historyWindow turns.
func recentHistory(history []*store.ConversationTurn) []*store.ConversationTurn {
	if len(history) > historyWindow {
		return history[len(history)-historyWindow:]
	}
	return history
}

// buildPrompt renders the persona, recent history, and new user message as a
// single completion-style prompt ending with an Assistant cue.
func buildPrompt(history []*store.ConversationTurn, userMessage string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")

	for _, turn := range recentHistory(history) {
		if turn.Role == store.RoleUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}

	b.WriteString("User: ")
	b.WriteString(userMessage)
	b.WriteString("\nAssistant:")
	return b.String()
}

// buildChatMessages renders the same context as a chat-style message array:
// system message, recent history, then the new user message.
func buildChatMessages(history []*store.ConversationTurn, userMessage string) []chatMessage {
	messages := []chatMessage{
		{Role: "system", Content: systemPrompt},
	}
	for _, turn := range recentHistory(history) {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Content})
	}
	return append(messages, chatMessage{Role: "user", Content: userMessage})
}
