// Package ai turns free-form chat messages into structured reminder intents
// so users can type "remind me to pay rent on the 5th at 9am" instead of
// learning the command grammar. Entirely optional: the bot works without it.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Intent is the model's structured reading of one user message.
type Intent struct {
	Action     string  `json:"action"`    // create_reminder, list_reminders, delete_reminder, set_timezone, unknown
	Text       string  `json:"text"`      // reminder description
	Time       string  `json:"time"`      // HH:MM
	Frequency  string  `json:"frequency"` // once, daily, weekly, monthly
	Day        string  `json:"day"`       // weekday name, day of month, or YYYY-MM-DD for once
	ID         string  `json:"id"`        // reminder id for delete
	Timezone   string  `json:"timezone"`  // IANA zone for set_timezone
	Reply      string  `json:"reply"`     // friendly message to show the user
	Confidence float64 `json:"confidence"`
}

const systemPromptTemplate = `You are the assistant of a bill-payment reminder bot. Parse the user's message into a structured intent.

Current time: %s (timezone %s)

Actions:
- create_reminder: user wants a new recurring or one-off bill reminder
- list_reminders: user wants to see their reminders
- delete_reminder: user wants to remove a reminder (set "id")
- set_timezone: user wants to change their timezone (set "timezone" to an IANA zone)
- unknown: anything else

For create_reminder fill:
- text: what to pay (short, imperative, e.g. "pay electricity bill")
- frequency: one of once, daily, weekly, monthly
- time: HH:MM 24-hour local time; default 07:35 when the user gives none
- day: weekday name for weekly; 1-31 for monthly; YYYY-MM-DD for once; empty for daily

Resolve relative dates ("tomorrow", "next friday") against the current time above. Always fill "reply" with one short friendly sentence describing what you understood.`

var intentSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["create_reminder", "list_reminders", "delete_reminder", "set_timezone", "unknown"]
		},
		"text": {"type": "string"},
		"time": {"type": "string"},
		"frequency": {"type": "string"},
		"day": {"type": "string"},
		"id": {"type": "string"},
		"timezone": {"type": "string"},
		"reply": {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	},
	"required": ["action", "reply", "confidence"],
	"additionalProperties": false
}`)

// ParseIntent asks the model to classify one message. now and timezone anchor
// relative-date resolution to the user's clock, not the server's.
func (c *Client) ParseIntent(ctx context.Context, userMessage string, now time.Time, timezone string) (*Intent, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday)"), timezone),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMessage,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "intent",
				Schema: intentSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	intent := &Intent{}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), intent); err != nil {
		return nil, fmt.Errorf("parse AI response: %w", err)
	}

	return intent, nil
}
