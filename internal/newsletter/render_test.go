package newsletter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

func TestRenderPersonalizesContent(t *testing.T) {
	r := NewRenderer("https://realinvest.example/", nil)
	c := &models.Campaign{Subject: "October listings", Content: "Hi {{ name }}, new homes in {{ site_name }}."}
	sub := &models.Subscriber{Email: "jane@example.com", Name: "Jane", UnsubscribeToken: "tok-123"}
	st := &models.SiteSettings{SiteName: "RealInvest"}

	html, text, err := r.Render(c, sub, st)
	require.NoError(t, err)

	assert.Contains(t, html, "Hi Jane, new homes in RealInvest.")
	assert.Contains(t, html, "October listings")
	assert.Contains(t, html, "https://realinvest.example/newsletter/unsubscribe/tok-123")
	// plain-text derivation carries the content without markup
	assert.Contains(t, text, "Hi Jane")
	assert.NotContains(t, text, "<div>")
}

func TestRenderLogoResolution(t *testing.T) {
	r := NewRenderer("https://realinvest.example", func(key string) string {
		return "https://cdn.example/" + key
	})
	c := &models.Campaign{Subject: "s", Content: "body"}
	sub := &models.Subscriber{Email: "a@b.c", UnsubscribeToken: "t"}

	html, _, err := r.Render(c, sub, &models.SiteSettings{SiteName: "RI", LogoKey: "branding/logo.png"})
	require.NoError(t, err)
	assert.Contains(t, html, `src="https://cdn.example/branding/logo.png"`)

	// no logo key, no img tag
	html, _, err = r.Render(c, sub, &models.SiteSettings{SiteName: "RI"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<img")
}

func TestRenderUnknownVariablesAreEmpty(t *testing.T) {
	r := NewRenderer("https://realinvest.example", nil)
	c := &models.Campaign{Subject: "s", Content: "Hello {{ nickname }}!"}
	sub := &models.Subscriber{Email: "a@b.c", UnsubscribeToken: "t"}

	html, _, err := r.Render(c, sub, &models.SiteSettings{SiteName: "RI"})
	require.NoError(t, err)
	assert.Contains(t, html, "Hello !")
}

func TestRenderInvalidTemplateFails(t *testing.T) {
	r := NewRenderer("https://realinvest.example", nil)
	c := &models.Campaign{Subject: "s", Content: "{% if %}broken"}
	sub := &models.Subscriber{Email: "a@b.c", UnsubscribeToken: "t"}

	_, _, err := r.Render(c, sub, &models.SiteSettings{SiteName: "RI"})
	assert.Error(t, err)
}

func TestUnsubscribeURL(t *testing.T) {
	r := NewRenderer("https://realinvest.example/", nil)
	assert.Equal(t, "https://realinvest.example/newsletter/unsubscribe/abc", r.UnsubscribeURL("abc"))
}
