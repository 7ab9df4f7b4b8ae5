package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/homecare-labs/intake-api/internal/domain"
)

// MockChat is a scripted stand-in for Gemini, used in local development and
// in the HTTP handler tests. It plays a minimal but complete interview: a
// greeting, follow-up questions, and a valid fenced JSON profile when the
// finish directive arrives.
type MockChat struct{}

func NewMockChat() *MockChat {
	return &MockChat{}
}

const mockProfile = "```json\n" +
	`{
  "recipient_information": {"relationship": "mother", "age": "82"},
  "care_requirements": {"assistance": "bathing and meal preparation"},
  "schedule_preferences": {"days": "weekdays", "hours": "mornings"}
}` + "\n```"

func (m *MockChat) Send(_ context.Context, req domain.ChatRequest) (string, error) {
	switch {
	case req.Text == "START_CHAT":
		name := ""
		if req.UserContext != nil && req.UserContext.Name != "" {
			name = " " + req.UserContext.Name
		}
		return fmt.Sprintf("Hi%s! I'm Emma, and I'll be helping you find the right care for your loved one. "+
			"Could you start by telling me about your relationship to the person who needs care?", name), nil

	case strings.Contains(req.Text, "JSON"):
		return mockProfile, nil

	default:
		return fmt.Sprintf("Thank you for sharing that. You said %q. Could you tell me a bit more about "+
			"the kind of help they need day to day?", req.Text), nil
	}
}
