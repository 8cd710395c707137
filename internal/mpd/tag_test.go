package mpd

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalName(t *testing.T) {
	name, err := LocalName("{urn:mpeg:dash:schema:mpd:2011}SegmentTemplate")
	require.NoError(t, err)
	assert.Equal(t, "SegmentTemplate", name)

	name, err = LocalName("Representation")
	require.NoError(t, err)
	assert.Equal(t, "Representation", name)

	_, err = LocalName("")
	assert.ErrorIs(t, err, ErrTag)

	_, err = LocalName("{urn:only-a-namespace}")
	assert.ErrorIs(t, err, ErrTag)
}

func TestQualifiedName(t *testing.T) {
	doc, err := xmlquery.Parse(strings.NewReader(
		`<MPD xmlns="urn:mpeg:dash:schema:mpd:2011"><Period/></MPD>`))
	require.NoError(t, err)

	root := elementChildren(doc)[0]
	assert.Equal(t, "{urn:mpeg:dash:schema:mpd:2011}MPD", QualifiedName(root))
	assert.True(t, hasTag(elementChildren(root)[0], "Period"))

	assert.Equal(t, "", QualifiedName(nil))
	assert.Equal(t, "", QualifiedName(doc))
	assert.False(t, hasTag(doc, "MPD"), "non-element nodes never match")
}
