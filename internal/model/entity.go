package model

import "time"

// Verdict is the legitimacy label returned by the classification gate.
type Verdict string

const (
	VerdictReal Verdict = "real"
	VerdictScam Verdict = "scam"
)

// Classification holds the outcome of the first-page legitimacy check.
type Classification struct {
	IsReal     bool    `json:"is_real"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Verdict returns the label corresponding to IsReal.
func (c Classification) Verdict() Verdict {
	if c.IsReal {
		return VerdictReal
	}
	return VerdictScam
}

// EntityProfile describes an organization. Website is the unique key when
// non-empty; RawData holds source columns with no known field.
type EntityProfile struct {
	ID               int64          `json:"id,omitempty"`
	Name             string         `json:"name"`
	Website          string         `json:"website"`
	Summary          string         `json:"summary"`
	Industry         string         `json:"industry"`
	Location         string         `json:"location"`
	Founders         []string       `json:"founders"`
	FundingStage     string         `json:"funding_stage"`
	LastFundingRound string         `json:"last_funding_round"`
	ContactEmail     string         `json:"contact_email"`
	Links            []string       `json:"links"`
	RawNotes         string         `json:"raw_notes"`
	RawData          map[string]any `json:"raw_data"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Normalize replaces nil collections with empty ones so a profile always
// serializes with every field present.
func (e *EntityProfile) Normalize() {
	if e.Founders == nil {
		e.Founders = []string{}
	}
	if e.Links == nil {
		e.Links = []string{}
	}
	if e.RawData == nil {
		e.RawData = map[string]any{}
	}
}
