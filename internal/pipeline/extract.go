package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/llm"
	"github.com/sells-group/scout-cli/internal/model"
)

const extractionSystemPrompt = "You extract structured startup information from website text.\n" +
	"Output strictly valid JSON with keys: name (string), website (string), summary (string), industry (string),\n" +
	"location (string), founders (array[string]), funding_stage (string), last_funding_round (string),\n" +
	"contact_email (string), links (array[string]), raw_notes (string)."

const defaultExtractChars = 8000

// Extractor turns aggregated crawl text into an EntityProfile.
type Extractor struct {
	llm       llm.Generator
	textChars int
}

// NewExtractor creates an Extractor. textChars bounds the text sent to the
// model; values below 1 use 8000.
func NewExtractor(gen llm.Generator, textChars int) *Extractor {
	if textChars < 1 {
		textChars = defaultExtractChars
	}
	return &Extractor{llm: gen, textChars: textChars}
}

// Extract returns a fully shaped profile: every field the model omits is
// an empty value, and a missing website falls back to the crawled URL.
func (e *Extractor) Extract(ctx context.Context, website, text string) (*model.EntityProfile, error) {
	user := fmt.Sprintf(
		"WEBSITE: %s\n"+
			"Extract as much as possible from the text. If unknown, set a sensible empty value.\n"+
			"TEXT: %s\nRespond with JSON only.",
		website, truncateRunes(text, e.textChars),
	)

	obj, err := e.llm.GenerateJSON(ctx, extractionSystemPrompt, user)
	if err != nil {
		return nil, eris.Wrap(err, "extract: profile")
	}
	return profileFromJSON(obj, website), nil
}

func profileFromJSON(obj map[string]any, website string) *model.EntityProfile {
	site := strings.TrimSpace(llm.String(obj, "website", ""))
	if site == "" {
		site = website
	}
	p := &model.EntityProfile{
		Name:             llm.String(obj, "name", ""),
		Website:          site,
		Summary:          llm.String(obj, "summary", ""),
		Industry:         llm.String(obj, "industry", ""),
		Location:         llm.String(obj, "location", ""),
		Founders:         llm.StringSlice(obj, "founders"),
		FundingStage:     llm.String(obj, "funding_stage", ""),
		LastFundingRound: llm.String(obj, "last_funding_round", ""),
		ContactEmail:     llm.String(obj, "contact_email", ""),
		Links:            llm.StringSlice(obj, "links"),
		RawNotes:         llm.String(obj, "raw_notes", ""),
	}
	p.Normalize()
	return p
}
