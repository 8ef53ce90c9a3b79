package newsletter

import (
	"fmt"
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/osteele/liquid"

	"github.com/ufukcicekdev/RealInvest/internal/models"
)

// frameTemplate is the branded outer HTML the campaign content is injected
// into. It is itself a Liquid template so campaign variables and frame
// variables go through one engine.
const frameTemplate = `<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    {% if logo_url != "" %}<p><img src="{{ logo_url }}" alt="{{ site_name }}" style="max-height: 60px;"></p>{% endif %}
    <h2>{{ subject }}</h2>
    <div>{{ content }}</div>
    <hr style="margin: 30px 0; border: none; border-top: 1px solid #ddd;">
    <p style="font-size: 12px; color: #666;">
      If you no longer wish to receive emails from {{ site_name }},
      you can <a href="{{ unsubscribe_url }}" style="color: #007bff;">unsubscribe here</a>.
    </p>
  </div>
</body>
</html>`

// Renderer produces per-recipient HTML and plain-text email bodies.
// Campaign content may reference {{ name }}, {{ email }}, {{ site_name }} and
// {{ unsubscribe_url }}; missing variables render empty rather than failing a send.
type Renderer struct {
	engine      *liquid.Engine
	baseURL     string
	resolveLogo func(key string) string
}

// NewRenderer creates a renderer. baseURL is the public site root used to
// build unsubscribe links; resolveLogo maps a stored logo key to an absolute
// URL (email clients cannot resolve relative paths).
func NewRenderer(baseURL string, resolveLogo func(key string) string) *Renderer {
	engine := liquid.NewEngine()
	engine.RegisterFilter("default", func(value interface{}, defaultVal string) interface{} {
		if value == nil {
			return defaultVal
		}
		if s := fmt.Sprintf("%v", value); s == "" {
			return defaultVal
		}
		return value
	})
	if resolveLogo == nil {
		resolveLogo = func(string) string { return "" }
	}
	return &Renderer{
		engine:      engine,
		baseURL:     strings.TrimRight(baseURL, "/"),
		resolveLogo: resolveLogo,
	}
}

// UnsubscribeURL builds the absolute self-service unsubscribe link for a token.
func (r *Renderer) UnsubscribeURL(token string) string {
	return r.baseURL + "/newsletter/unsubscribe/" + token
}

// Render produces the HTML body and its plain-text derivation for one
// recipient. The text version is stripped from the rendered HTML, not
// authored separately.
func (r *Renderer) Render(c *models.Campaign, sub *models.Subscriber, st *models.SiteSettings) (html, text string, err error) {
	unsubURL := r.UnsubscribeURL(sub.UnsubscribeToken)

	bindings := map[string]interface{}{
		"name":            sub.Name,
		"email":           sub.Email,
		"site_name":       st.SiteName,
		"unsubscribe_url": unsubURL,
	}

	content, err := r.engine.ParseAndRenderString(c.Content, bindings)
	if err != nil {
		return "", "", fmt.Errorf("render content: %w", err)
	}

	logoURL := ""
	if st.LogoKey != "" {
		logoURL = r.resolveLogo(st.LogoKey)
	}
	frameBindings := map[string]interface{}{
		"subject":         c.Subject,
		"content":         content,
		"site_name":       st.SiteName,
		"logo_url":        logoURL,
		"unsubscribe_url": unsubURL,
	}
	html, err = r.engine.ParseAndRenderString(frameTemplate, frameBindings)
	if err != nil {
		return "", "", fmt.Errorf("render frame: %w", err)
	}

	text, err = html2text.FromString(html, html2text.Options{TextOnly: false})
	if err != nil {
		return "", "", fmt.Errorf("derive plain text: %w", err)
	}
	return html, text, nil
}
