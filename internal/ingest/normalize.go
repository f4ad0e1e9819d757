// Package ingest turns spreadsheet exports into entity profiles.
package ingest

import (
	"regexp"
	"strings"

	"github.com/sells-group/scout-cli/internal/model"
)

// Profile field names a column can map to.
const (
	FieldName             = "name"
	FieldWebsite          = "website"
	FieldSummary          = "summary"
	FieldIndustry         = "industry"
	FieldLocation         = "location"
	FieldFounders         = "founders"
	FieldFundingStage     = "funding_stage"
	FieldLastFundingRound = "last_funding_round"
	FieldContactEmail     = "contact_email"
)

// FieldMap maps snake_cased column names to profile fields.
type FieldMap map[string]string

// DefaultFieldMap returns the built-in column aliases.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		"company":       FieldName,
		"startup":       FieldName,
		"name":          FieldName,
		"url":           FieldWebsite,
		"website":       FieldWebsite,
		"site":          FieldWebsite,
		"description":   FieldSummary,
		"summary":       FieldSummary,
		"industry":      FieldIndustry,
		"sector":        FieldIndustry,
		"location":      FieldLocation,
		"city":          FieldLocation,
		"country":       FieldLocation,
		"founders":      FieldFounders,
		"founder":       FieldFounders,
		"stage":         FieldFundingStage,
		"funding_stage": FieldFundingStage,
		"last_round":    FieldLastFundingRound,
		"email":         FieldContactEmail,
	}
}

// Merge returns the default map overlaid with extra. Keys of extra are
// snake_cased first.
func (m FieldMap) Merge(extra FieldMap) FieldMap {
	out := make(FieldMap, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[SnakeCase(k)] = strings.TrimSpace(v)
	}
	return out
}

var nonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// SnakeCase lowercases s and collapses every run of non-alphanumerics into
// a single underscore.
func SnakeCase(s string) string {
	s = nonAlnum.ReplaceAllString(strings.TrimSpace(s), "_")
	return strings.ToLower(strings.Trim(s, "_"))
}

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Normalize maps each row to a profile. Columns whose mapping is not a
// profile field land in RawData under their snake_cased name. Empty cells
// are skipped entirely. extra may be nil.
func Normalize(t Table, extra FieldMap) []model.EntityProfile {
	mapping := DefaultFieldMap().Merge(extra)

	cols := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		cols[i] = SnakeCase(h)
	}

	out := make([]model.EntityProfile, 0, len(t.Rows))
	for _, row := range t.Rows {
		if blankRow(row) {
			continue
		}
		p := model.EntityProfile{RawData: map[string]any{}}
		for i, cell := range row {
			if i >= len(cols) {
				break
			}
			v := strings.TrimSpace(cell)
			if v == "" {
				continue
			}
			if !assign(&p, mapping[cols[i]], v) && cols[i] != "" {
				p.RawData[cols[i]] = v
			}
		}
		p.Normalize()
		out = append(out, p)
	}
	return out
}

func assign(p *model.EntityProfile, field, v string) bool {
	switch field {
	case FieldName:
		p.Name = v
	case FieldWebsite:
		p.Website = v
	case FieldSummary:
		p.Summary = v
	case FieldIndustry:
		p.Industry = v
	case FieldLocation:
		p.Location = v
	case FieldFounders:
		p.Founders = SplitFounders(v)
	case FieldFundingStage:
		p.FundingStage = v
	case FieldLastFundingRound:
		p.LastFundingRound = v
	case FieldContactEmail:
		p.ContactEmail = v
	default:
		return false
	}
	return true
}

// SplitFounders splits a cell on commas and semicolons.
func SplitFounders(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
