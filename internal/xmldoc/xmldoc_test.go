package xmldoc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var testNS = Namespace{
	{URL: "urn:test:a", Prefix: "a"},
	{URL: "urn:test:b", Prefix: "b"},
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := Element{
		Name: "a:Root",
		Children: []Element{
			{Name: "a:Child", Text: "hello"},
			{Name: "b:Child", Text: "world", Attrs: []Attr{{Name: "id", Value: "7"}}},
		},
	}

	encoded := doc.EncodeString(testNS)
	require.Contains(t, encoded, `xmlns:a="urn:test:a"`)
	require.Contains(t, encoded, `xmlns:b="urn:test:b"`)

	decoded, err := Decode(testNS, strings.NewReader(encoded))
	require.NoError(t, err)

	require.Equal(t, "a:Root", decoded.Name)
	require.Len(t, decoded.Children, 2)
	require.Equal(t, "a:Child", decoded.Children[0].Name)
	require.Equal(t, "hello", decoded.Children[0].Text)
	require.Equal(t, "b:Child", decoded.Children[1].Name)
	require.Equal(t, "world", decoded.Children[1].Text)
	require.Equal(t, "/a:Root/b:Child", decoded.Children[1].Path)
}

func TestLookupFindsRequiredAndOptional(t *testing.T) {
	root := Element{
		Children: []Element{
			{Name: "a:Min", Text: "0"},
			{Name: "a:Max", Text: "100"},
		},
	}

	minLookup := Lookup{Name: "a:Min", Required: true}
	stepLookup := Lookup{Name: "a:Step"}

	missed := root.Lookup(&minLookup, &stepLookup)
	require.Nil(t, missed)
	require.True(t, minLookup.Found)
	require.False(t, stepLookup.Found)
}

func TestLookupReportsMissingRequired(t *testing.T) {
	root := Element{}
	maxLookup := Lookup{Name: "a:Max", Required: true}

	missed := root.Lookup(&maxLookup)
	require.NotNil(t, missed)
	require.Equal(t, "a:Max", missed.Name)
}
