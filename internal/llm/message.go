package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Generator turns a prepared coach context summary into a short
// user-facing message, optionally carrying one check-in question.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CoachMessage is the structured output expected from the model.
type CoachMessage struct {
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Question *Question `json:"question,omitempty"`
}

// Question is an optional single check-in the coach may pose.
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Choices []string `json:"choices,omitempty"`
}

const messagePrompt = `You are a health coach writing one short push-style message for a user.

Their current situation:
%s

Rules:
- Tone: %s. Two sentences max for the message. No emoji.
- Mention at most one concrete next action.
- Only include a question if askAllowed is true and something genuinely needs the user's input.
- askAllowed: %t

Respond with JSON only:
{"title": "...", "message": "...", "question": {"id": "short_snake_case", "text": "...", "choices": ["...", "..."]} or omit question}`

// GenerateMessage asks the model for a coach message built from the
// context summary. askAllowed mirrors the prompt gate: when false the
// parsed question is stripped even if the model produced one.
func GenerateMessage(ctx context.Context, gen Generator, summary, tone string, askAllowed bool) (*CoachMessage, error) {
	prompt := fmt.Sprintf(messagePrompt, summary, tone, askAllowed)

	response, err := gen.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating coach message: %w", err)
	}

	msg, err := parseMessage(response)
	if err != nil {
		return nil, err
	}

	if !askAllowed {
		msg.Question = nil
	}

	return msg, nil
}

func parseMessage(response string) (*CoachMessage, error) {
	jsonStr := extractJSON(response)

	var msg CoachMessage
	if err := json.Unmarshal([]byte(jsonStr), &msg); err != nil {
		return nil, fmt.Errorf("parsing coach message: %w (response: %s)", err, truncate(response, 200))
	}

	if msg.Message == "" {
		return nil, fmt.Errorf("coach message missing body (response: %s)", truncate(response, 200))
	}
	if msg.Question != nil && (msg.Question.ID == "" || msg.Question.Text == "") {
		// Malformed question, keep the message
		msg.Question = nil
	}

	return &msg, nil
}

// extractJSON trims any chatter around the JSON object (LLM might
// include extra text despite the format hint).
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")

	if start >= 0 && end > start {
		return s[start : end+1]
	}

	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
