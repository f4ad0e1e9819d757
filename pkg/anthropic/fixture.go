package anthropic

import (
	"context"
	"strings"
	"sync"
)

// Canned responses returned by FixtureClient when no override is set.
const (
	FixtureClassification = `{"status": "real", "confidence": 0.85, "reason": "Domain appears legitimate."}`

	FixtureProfile = `{
  "name": "Example Startup",
  "website": "https://example.com",
  "summary": "Example Startup provides innovative solutions.",
  "industry": "Software",
  "location": "Remote",
  "founders": ["Jane Doe", "John Smith"],
  "funding_stage": "Seed",
  "last_funding_round": "2024-03",
  "contact_email": "contact@example.com",
  "links": ["https://twitter.com/example"],
  "raw_notes": "offline mock"
}`
)

var _ Client = (*FixtureClient)(nil)

// FixtureClient is a deterministic Client that never touches the network.
// Requests whose system prompt mentions classification get the
// classification fixture; everything else gets the profile fixture.
type FixtureClient struct {
	Classification string
	Profile        string

	mu    sync.Mutex
	calls int
}

// NewFixtureClient returns a FixtureClient loaded with the default fixtures.
func NewFixtureClient() *FixtureClient {
	return &FixtureClient{
		Classification: FixtureClassification,
		Profile:        FixtureProfile,
	}
}

func (f *FixtureClient) CreateMessage(_ context.Context, req MessageRequest) (*MessageResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	text := f.Profile
	if isClassification(req) {
		text = f.Classification
	}
	return &MessageResponse{
		ID:         "fixture",
		Model:      req.Model,
		Content:    []ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}, nil
}

// Calls returns how many requests the fixture has served.
func (f *FixtureClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func isClassification(req MessageRequest) bool {
	for _, s := range req.System {
		if strings.Contains(strings.ToLower(s.Text), "classif") {
			return true
		}
	}
	return false
}
