package es

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUnresolvedQuery(t *testing.T) {
	q := BuildUnresolvedQuery("  ", 20)
	assert.Equal(t, 20, q["size"])
	assert.Contains(t, q["query"], "match_all")

	q = BuildUnresolvedQuery("caravan price", 5)
	match := q["query"].(map[string]interface{})["match"].(map[string]interface{})
	assert.Equal(t, "caravan price", match["utterance"].(map[string]interface{})["query"])
}
