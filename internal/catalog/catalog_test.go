package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntents(t *testing.T) {
	c, err := ParseIntents([]byte(`{"intents":[
		{"tag":"greeting","patterns":["hi"],"responses":["Hello!","Hi there"]},
		{"tag":"caravan","responses":["We build caravans."]}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "caravan"}, c.Tags())

	r, ok := c.Responses("greeting")
	require.True(t, ok)
	assert.Equal(t, []string{"Hello!", "Hi there"}, r)

	require.NoError(t, c.RequireTags([]string{"caravan", "greeting"}))
	require.ErrorIs(t, c.RequireTags([]string{"goodbye"}), ErrInvalidCatalog)
}

func TestParseIntentsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":         `{"intents":[]}`,
		"no tag":        `{"intents":[{"responses":["x"]}]}`,
		"no responses":  `{"intents":[{"tag":"a","responses":[]}]}`,
		"duplicate tag": `{"intents":[{"tag":"a","responses":["x"]},{"tag":"a","responses":["y"]}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseIntents([]byte(data))
			require.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}

	_, err := ParseIntents([]byte(`not json`))
	require.Error(t, err)
}

func TestGallery(t *testing.T) {
	cats := []Category{
		{Name: "urbania", DisplayName: "Force Urbania", Keywords: []string{"urbania"}, Images: []string{"u1.jpg"}},
		{Name: "caravan", DisplayName: "Custom Caravan", Keywords: []string{"caravan", "Home On Wheels"}, Images: []string{"c1.jpg", "c2.jpg"}},
	}
	g, err := NewGallery(cats, map[string]string{"force_urbania": "urbania", "caravan": "caravan"}, []string{"force_urbania", "caravan", "greeting"})
	require.NoError(t, err)

	c, ok := g.MatchKeywords("do you build a home on wheels")
	require.True(t, ok)
	assert.Equal(t, "caravan", c.Name)

	c, ok = g.MatchKeywords("urbania or caravan")
	require.True(t, ok)
	assert.Equal(t, "urbania", c.Name, "first category in configured order wins")

	_, ok = g.MatchKeywords("hello there")
	assert.False(t, ok)

	c, ok = g.ForIntent("force_urbania")
	require.True(t, ok)
	assert.Equal(t, "Force Urbania", c.DisplayName)

	_, ok = g.ForIntent("greeting")
	assert.False(t, ok)

	assert.True(t, g.HasImage("c2.jpg"))
	assert.False(t, g.HasImage("../etc/passwd"))
	assert.ElementsMatch(t, []string{"force_urbania", "caravan"}, g.MediaTags())
}

func TestGalleryValidation(t *testing.T) {
	cats := []Category{{Name: "caravan", Images: []string{"c1.jpg"}}}

	_, err := NewGallery(cats, map[string]string{"caravan": "icu"}, []string{"caravan"})
	require.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = NewGallery(cats, map[string]string{"ambulance": "caravan"}, []string{"caravan"})
	require.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = NewGallery(append(cats, Category{Name: "caravan"}), nil, nil)
	require.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestQuickReplies(t *testing.T) {
	q := NewQuickReplies(
		map[string][]string{"greeting": {"What services do you offer?"}},
		[]string{"Our services"},
		[]string{"How do I contact you?"},
	)
	assert.Equal(t, []string{"What services do you offer?"}, q.For("greeting"))
	assert.Equal(t, []string{"Our services"}, q.For("unknown"))
	assert.Equal(t, []string{"How do I contact you?"}, q.Fallback())

	got := q.For("greeting")
	got[0] = "mutated"
	assert.Equal(t, []string{"What services do you offer?"}, q.For("greeting"))
}
