package placeholder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	got := Find("Hi {{first-name}}, from {{ company }} and {{first-name}} again")
	assert.Equal(t, []string{"first-name", "company"}, got)
	assert.Nil(t, Find("no markers {here}"))
}

func TestSplit(t *testing.T) {
	segs := Split("Hello {{first-name}}!")
	assert.Equal(t, []Segment{
		{Text: "Hello "},
		{Text: "{{first-name}}", Token: "first-name", Placeholder: true},
		{Text: "!"},
	}, segs)
	assert.Empty(t, Split(""))
}

func TestReplaceFunc(t *testing.T) {
	got := ReplaceFunc("a {{x}} b", func(m, tok string) string { return "[" + strings.ToUpper(tok) + "]" })
	assert.Equal(t, "a [X] b", got)
	assert.True(t, Contains("{{ x }}"))
}
