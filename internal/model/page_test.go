package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchedPage_ToPersisted(t *testing.T) {
	t.Parallel()

	page := FetchedPage{
		URL:         "https://acme.com/about",
		Title:       "About",
		Text:        "About Acme",
		StatusCode:  200,
		ContentHash: "abc",
		HTML:        "<html></html>",
		Depth:       1,
		Referer:     "https://acme.com/",
	}

	t.Run("with referer", func(t *testing.T) {
		t.Parallel()
		pp := page.ToPersisted(true)
		assert.Equal(t, "https://acme.com/about", pp.URL)
		assert.Equal(t, "About", pp.Title)
		assert.Equal(t, "About Acme", pp.Text)
		assert.Equal(t, "abc", pp.ContentHash)
		assert.Equal(t, 200, pp.StatusCode)
		assert.Equal(t, "https://acme.com/", pp.Referer)
	})

	t.Run("without referer", func(t *testing.T) {
		t.Parallel()
		pp := page.ToPersisted(false)
		assert.Empty(t, pp.Referer)
	})
}

func TestEntityProfile_Normalize(t *testing.T) {
	t.Parallel()

	var e EntityProfile
	e.Normalize()

	assert.NotNil(t, e.Founders)
	assert.NotNil(t, e.Links)
	assert.NotNil(t, e.RawData)
	assert.Empty(t, e.Founders)
}

func TestClassification_Verdict(t *testing.T) {
	t.Parallel()
	assert.Equal(t, VerdictReal, Classification{IsReal: true}.Verdict())
	assert.Equal(t, VerdictScam, Classification{IsReal: false}.Verdict())
}
