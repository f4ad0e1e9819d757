package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/llm"
	"github.com/sells-group/scout-cli/internal/model"
)

const classifierSystemPrompt = "You are a strict classifier that determines if a startup webpage appears legitimate or a scam.\n" +
	"Return strictly valid JSON with keys: status ('real'|'scam'), confidence (0..1), reason (short)."

const (
	defaultGateConfidence = 0.5
	defaultSnippetChars   = 1500
)

// Gate runs the cheap first-page legitimacy check.
type Gate struct {
	llm          llm.Generator
	snippetChars int
}

// NewGate creates a Gate. snippetChars bounds the page text sent to the
// model; values below 1 use 1500.
func NewGate(gen llm.Generator, snippetChars int) *Gate {
	if snippetChars < 1 {
		snippetChars = defaultSnippetChars
	}
	return &Gate{llm: gen, snippetChars: snippetChars}
}

// Classify asks the model whether the page looks legitimate. Missing or
// unrecognized fields fail open: verdict real, confidence 0.5.
func (g *Gate) Classify(ctx context.Context, pageURL, title, text string) (model.Classification, error) {
	user := fmt.Sprintf(
		"Assess the following website homepage. Only use indicators visible in the text/title.\n"+
			"URL: %s\nTITLE: %s\nSNIPPET: %s\nRespond with JSON only.",
		pageURL, title, truncateRunes(text, g.snippetChars),
	)

	obj, err := g.llm.GenerateJSON(ctx, classifierSystemPrompt, user)
	if err != nil {
		return model.Classification{}, eris.Wrap(err, "gate: classify")
	}
	return parseClassification(obj), nil
}

func parseClassification(obj map[string]any) model.Classification {
	status := llm.String(obj, "status", "")
	if status == "" {
		status = llm.String(obj, "verdict", "")
	}
	status = strings.ToLower(strings.TrimSpace(status))

	confidence := llm.Float(obj, "confidence", defaultGateConfidence)
	confidence = min(max(confidence, 0), 1)

	return model.Classification{
		IsReal:     status != string(model.VerdictScam),
		Confidence: confidence,
		Reason:     llm.String(obj, "reason", ""),
	}
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
