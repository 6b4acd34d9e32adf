package emailtpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<!DOCTYPE html>
<html><head><title> Your gift is here </title><style>p{color:red}</style></head>
<body>
  <p>Hi {{first-name}},</p>
  <p>Claim it <a href="{{claim-url}}">here</a> or visit <a href="https://example.com/faq">our FAQ</a>.</p>
  <img src="https://cdn.example.com/logo.png">
  <a href="mailto:help@example.com">Help</a>
</body></html>`

func TestInspect(t *testing.T) {
	s, err := Inspect(sample)
	require.NoError(t, err)
	assert.Equal(t, "Your gift is here", s.Title)
	assert.Equal(t, []string{"{{claim-url}}", "https://example.com/faq", "mailto:help@example.com"}, s.Links)
	assert.Equal(t, []string{"https://cdn.example.com/logo.png"}, s.Images)
	assert.Equal(t, []string{"first-name", "claim-url"}, s.Placeholders)
	assert.Equal(t, "Hi {{first-name}}, Claim it here or visit our FAQ. Help", s.PlainText)
}

func TestValidate(t *testing.T) {
	assert.Equal(t, "", Validate(sample))
	assert.Equal(t, "Email template is empty", Validate("  "))
	assert.Equal(t, "Email template contains an invalid link: www.example.com", Validate(`<a href="www.example.com">x</a>`))
	assert.Equal(t, "Email template contains an invalid image URL: logo.png", Validate(`<img src="logo.png">`))
}
