package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/scout-cli/internal/model"
)

func TestExtractor_FullProfile(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("GenerateJSON", mock.Anything, extractionSystemPrompt, mock.Anything).Return(map[string]any{
		"name":               "Acme",
		"website":            "https://acme.test",
		"summary":            "Widgets",
		"industry":           "Manufacturing",
		"location":           "Austin, TX",
		"founders":           []any{"Ada", "Grace"},
		"funding_stage":      "Seed",
		"last_funding_round": "2025",
		"contact_email":      "hi@acme.test",
		"links":              []any{"https://acme.test/about"},
		"raw_notes":          "note",
	}, nil)

	got, err := NewExtractor(gen, 0).Extract(context.Background(), "https://acme.test/", "text")
	require.NoError(t, err)
	assert.Equal(t, &model.EntityProfile{
		Name:             "Acme",
		Website:          "https://acme.test",
		Summary:          "Widgets",
		Industry:         "Manufacturing",
		Location:         "Austin, TX",
		Founders:         []string{"Ada", "Grace"},
		FundingStage:     "Seed",
		LastFundingRound: "2025",
		ContactEmail:     "hi@acme.test",
		Links:            []string{"https://acme.test/about"},
		RawNotes:         "note",
		RawData:          map[string]any{},
	}, got)
}

func TestExtractor_DefaultsMissingFields(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(map[string]any{"name": "Acme", "founders": "Ada"}, nil)

	got, err := NewExtractor(gen, 0).Extract(context.Background(), "https://acme.test/", "text")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "https://acme.test/", got.Website, "website falls back to crawled URL")
	assert.Equal(t, "", got.Industry)
	assert.Equal(t, []string{"Ada"}, got.Founders)
	assert.Equal(t, []string{}, got.Links)
	assert.NotNil(t, got.RawData)
}

func TestExtractor_TruncatesText(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("GenerateJSON", mock.Anything, extractionSystemPrompt, mock.MatchedBy(func(user string) bool {
		return strings.Contains(user, "WEBSITE: https://acme.test/\n") &&
			strings.Contains(user, "TEXT: "+strings.Repeat("x", 8)+"\n")
	})).Return(map[string]any{}, nil)

	_, err := NewExtractor(gen, 8).Extract(context.Background(), "https://acme.test/", strings.Repeat("x", 100))
	require.NoError(t, err)
	gen.AssertExpectations(t)
}

func TestExtractor_Error(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("GenerateJSON", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := NewExtractor(gen, 0).Extract(context.Background(), "https://acme.test/", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extract: profile")
}

func TestPromptsAreDistinguishable(t *testing.T) {
	assert.Contains(t, strings.ToLower(classifierSystemPrompt), "classif")
	assert.NotContains(t, strings.ToLower(extractionSystemPrompt), "classif")
}
