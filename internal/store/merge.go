package store

import (
	"encoding/json"
	"maps"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/scout-cli/internal/model"
)

// MergeProfile folds incoming into existing. Non-empty incoming scalars
// overwrite, founders and links are unioned in first-seen order, raw data
// keys from incoming win, and notes are appended on a new line. The result
// keeps existing's ID, website, and CreatedAt; UpdatedAt is always later
// than existing.UpdatedAt.
func MergeProfile(existing, incoming model.EntityProfile, now time.Time) model.EntityProfile {
	out := existing

	overwrite(&out.Name, incoming.Name)
	overwrite(&out.Summary, incoming.Summary)
	overwrite(&out.Industry, incoming.Industry)
	overwrite(&out.Location, incoming.Location)
	overwrite(&out.FundingStage, incoming.FundingStage)
	overwrite(&out.LastFundingRound, incoming.LastFundingRound)
	overwrite(&out.ContactEmail, incoming.ContactEmail)

	out.Founders = union(existing.Founders, incoming.Founders)
	out.Links = union(existing.Links, incoming.Links)

	out.RawData = make(map[string]any, len(existing.RawData)+len(incoming.RawData))
	maps.Copy(out.RawData, existing.RawData)
	maps.Copy(out.RawData, incoming.RawData)

	switch {
	case incoming.RawNotes == "":
	case existing.RawNotes == "":
		out.RawNotes = incoming.RawNotes
	default:
		out.RawNotes = existing.RawNotes + "\n" + incoming.RawNotes
	}

	out.UpdatedAt = nextTimestamp(existing.UpdatedAt, now)
	out.Normalize()
	return out
}

func overwrite(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			v = strings.TrimSpace(v)
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// nextTimestamp returns now at microsecond precision, bumped past prev
// when the clock has not moved forward.
func nextTimestamp(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		return prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}

// newProfile prepares p for insertion.
func newProfile(p model.EntityProfile, now time.Time) model.EntityProfile {
	now = now.UTC().Truncate(time.Microsecond)
	p.Website = strings.TrimSpace(p.Website)
	p.Founders = union(nil, p.Founders)
	p.Links = union(nil, p.Links)
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Normalize()
	return p
}

// nullableWebsite maps an empty website to NULL so the unique constraint
// only binds real values.
func nullableWebsite(w string) any {
	if w = strings.TrimSpace(w); w == "" {
		return nil
	}
	return w
}

type profileJSON struct {
	founders []byte
	links    []byte
	rawData  []byte
}

func marshalProfile(p model.EntityProfile) (profileJSON, error) {
	p.Normalize()
	var out profileJSON
	var err error
	if out.founders, err = json.Marshal(p.Founders); err != nil {
		return out, eris.Wrap(err, "marshal founders")
	}
	if out.links, err = json.Marshal(p.Links); err != nil {
		return out, eris.Wrap(err, "marshal links")
	}
	if out.rawData, err = json.Marshal(p.RawData); err != nil {
		return out, eris.Wrap(err, "marshal raw_data")
	}
	return out, nil
}

func unmarshalProfile(p *model.EntityProfile, founders, links, rawData []byte) error {
	if len(founders) > 0 {
		if err := json.Unmarshal(founders, &p.Founders); err != nil {
			return eris.Wrap(err, "unmarshal founders")
		}
	}
	if len(links) > 0 {
		if err := json.Unmarshal(links, &p.Links); err != nil {
			return eris.Wrap(err, "unmarshal links")
		}
	}
	if len(rawData) > 0 {
		if err := json.Unmarshal(rawData, &p.RawData); err != nil {
			return eris.Wrap(err, "unmarshal raw_data")
		}
	}
	p.Normalize()
	return nil
}
