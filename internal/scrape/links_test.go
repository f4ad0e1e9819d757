package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
		<a href="#top">top</a>
		<a href="mailto:hi@acme.com">mail</a>
		<a href="tel:+15551234">call</a>
		<a href="javascript:void(0)">js</a>
		<a href="/about">about</a>
		<a href="//cdn.acme.com/file">cdn</a>
		<a href="https://acme.com/team">team</a>
		<a href="  /about  ">about again</a>
		<a href="careers">relative</a>
		<a href="ftp://acme.com/pub">ftp</a>
		<a href="">empty</a>
		<a>no href</a>
		<a href="https://external.com/">external</a>
	</body></html>`

	got := ExtractLinks(markup, "https://www.acme.com/company/index.html")
	assert.Equal(t, []string{
		"https://www.acme.com/about",
		"https://cdn.acme.com/file",
		"https://acme.com/team",
		"https://www.acme.com/about",
		"https://www.acme.com/company/careers",
		"https://external.com/",
	}, got)
}

func TestExtractLinks_RootRelativeKeepsScheme(t *testing.T) {
	t.Parallel()
	got := ExtractLinks(`<a href="/x">x</a>`, "http://127.0.0.1:8080/start")
	assert.Equal(t, []string{"http://127.0.0.1:8080/x"}, got)
}

func TestExtractLinks_NoLinks(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ExtractLinks("<p>nothing here</p>", "https://acme.com"))
	assert.Empty(t, ExtractLinks(`<a href="/x">x</a>`, "://bad base"))
}

func TestRegisteredDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want string
	}{
		{"https://www.example.com/a", "example.com"},
		{"https://blog.example.com", "example.com"},
		{"https://example.com", "example.com"},
		{"https://WWW.Example.COM/", "example.com"},
		{"https://shop.example.co.uk/cart", "example.co.uk"},
		{"http://127.0.0.1:8080/x", "127.0.0.1"},
		{"http://localhost:3000", "localhost"},
		{"https://a.example/", "example"},
		{"https://b.example/page", "example"},
		{"https://deep.sub.acme.corp", "corp"},
		{"https://someone.github.io/repo", "someone.github.io"},
		{"not a url at all", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RegisteredDomain(tt.url))
		})
	}
}

func TestSameSite(t *testing.T) {
	t.Parallel()
	assert.True(t, SameSite("https://www.example.com", "https://blog.example.com/post"))
	assert.False(t, SameSite("https://example.com", "https://external.com"))
	assert.True(t, SameSite("https://a.example/", "https://b.example/"))
	assert.False(t, SameSite("https://a.example/", "https://external.com/"))
	assert.False(t, SameSite("", ""))
}
