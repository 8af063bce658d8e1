package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/meshgraph/internal/apperr"
	"github.com/starford/meshgraph/internal/models"
)

type edges map[[2]string]bool

func (e edges) HasLink(from, to string) bool { return e[[2]string{from, to}] }

func page(name string, meta models.Metadata) *models.Page {
	return &models.Page{Name: name, FilePath: name + ".md", Metadata: meta}
}

func TestFilters(t *testing.T) {
	p := page("Test", models.Metadata{
		"status":  {"draft"},
		"tags":    {"rust-lang", "wiki"},
		"version": {"v12"},
	})
	links := edges{{"Test", "Home"}: true, {"Index", "Test"}: true}

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"equals", Equals{Key: "status", Value: "draft"}, true},
		{"equals other value", Equals{Key: "status", Value: "published"}, false},
		{"equals multi value", Equals{Key: "tags", Value: "wiki"}, true},
		{"equals missing key", Equals{Key: "author", Value: "x"}, false},
		{"has key", HasKey{Key: "tags"}, true},
		{"has key missing", HasKey{Key: "missing"}, false},
		{"contains", Contains{Key: "tags", Substring: "rust"}, true},
		{"contains miss", Contains{Key: "tags", Substring: "python"}, false},
		{"matches", NewMatches("version", `^v\d+$`), true},
		{"matches miss", NewMatches("version", `^\d+$`), false},
		{"matches literal", Matches{Key: "version", Pattern: `v1`}, true},
		{"matches invalid", NewMatches("version", `[unclosed`), false},
		{"matches invalid literal", Matches{Key: "version", Pattern: `(`}, false},
		{"links to", LinksTo{Target: "Home"}, true},
		{"links to miss", LinksTo{Target: "Index"}, false},
		{"linked from", LinkedFrom{Source: "Index"}, true},
		{"linked from miss", LinkedFrom{Source: "Home"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.f.Match(p, links))
		})
	}
}

func TestMatchAll(t *testing.T) {
	p := page("A", models.Metadata{"status": {"draft"}, "tags": {"go"}})

	assert.True(t, MatchAll(p, nil, nil))
	assert.True(t, MatchAll(p, []Filter{Equals{Key: "status", Value: "draft"}, HasKey{Key: "tags"}}, nil))
	assert.False(t, MatchAll(p, []Filter{Equals{Key: "status", Value: "draft"}, HasKey{Key: "owner"}}, nil))
	assert.False(t, MatchAll(p, []Filter{LinksTo{Target: "B"}}, nil))
}

func TestProject(t *testing.T) {
	p := page("A", models.Metadata{"status": {"draft"}, "tags": {"a", "b"}})
	row := Project(p, []string{"name", "file_path", "tags", "missing"})

	assert.Equal(t, "A", row.Page)
	assert.Equal(t, []string{"A"}, row.Get("name"))
	assert.Equal(t, []string{"A.md"}, row.Get("file_path"))
	assert.Equal(t, []string{"a", "b"}, row.Get("tags"))
	assert.NotContains(t, row.Values, "missing")
	assert.NotContains(t, row.Values, "status")
}

func TestRenderMarkdown(t *testing.T) {
	r := Result{
		Columns: []string{"status", "tags"},
		Rows: []Row{
			{Page: "A", Values: map[string][]string{"status": {"draft"}, "tags": {"x", "y|z"}}},
			{Page: "B", Values: map[string][]string{}},
			{Page: "C", Values: map[string][]string{"tags": {"q"}}},
		},
	}
	want := "| status | tags |\n" +
		"| --- | --- |\n" +
		"| draft | x, y\\|z |\n" +
		"|  | q |\n"
	assert.Equal(t, want, RenderMarkdown(r))

	assert.Equal(t, "_No matching pages found_\n", RenderMarkdown(Result{Columns: []string{"name"}}))

	noCols := Result{Rows: []Row{{Page: "A", Values: map[string][]string{}}}}
	assert.Equal(t, "| name |\n| --- |\n| A |\n", RenderMarkdown(noCols))
}

func TestSpecFilter(t *testing.T) {
	filters, err := FromSpecs([]Spec{
		{Op: OpEquals, Key: "status", Value: "draft"},
		{Op: OpHasKey, Key: "tags"},
		{Op: OpContains, Key: "tags", Value: "ru"},
		{Op: OpMatches, Key: "version", Value: "("},
		{Op: OpLinksTo, Value: "Home"},
		{Op: OpLinkedFrom, Value: "Index"},
	})
	require.NoError(t, err)
	require.Len(t, filters, 6)
	assert.Equal(t, Equals{Key: "status", Value: "draft"}, filters[0])
	assert.Equal(t, "version/=(", filters[3].String())
	assert.Equal(t, LinkedFrom{Source: "Index"}, filters[5])

	_, err = FromSpecs([]Spec{{Op: "near", Key: "x"}})
	assert.ErrorIs(t, err, apperr.ErrInvalidFilter)

	_, err = Spec{Op: OpEquals, Value: "x"}.Filter()
	assert.ErrorIs(t, err, apperr.ErrInvalidFilter)

	_, err = Spec{Op: OpLinksTo}.Filter()
	assert.ErrorIs(t, err, apperr.ErrInvalidFilter)
}

func TestParseMacro(t *testing.T) {
	m := ParseMacro(`status=draft, tags~=rust, version/=v\d+, ?owner, ->Home, <-Index, garbage, ||name||status||`)

	assert.Equal(t, []string{"name", "status"}, m.Columns)
	got := make([]string, 0, len(m.Filters))
	for _, f := range m.Filters {
		got = append(got, f.String())
	}
	assert.Equal(t, []string{`status=draft`, `tags~=rust`, `version/=v\d+`, `?owner`, `->Home`, `<-Index`}, got)
	assert.IsType(t, Contains{}, m.Filters[1])
	assert.IsType(t, Matches{}, m.Filters[2])
}

func TestParseMacro_Defaults(t *testing.T) {
	m := ParseMacro("status = published")
	assert.Equal(t, []string{"name"}, m.Columns)
	require.Len(t, m.Filters, 1)
	assert.Equal(t, Equals{Key: "status", Value: "published"}, m.Filters[0])

	m = ParseMacro("||name||")
	assert.Empty(t, m.Filters)
	assert.Equal(t, []string{"name"}, m.Columns)

	m = ParseMacro("=value, ?, ->")
	assert.Empty(t, m.Filters)
}

func TestMacroString_RoundTrip(t *testing.T) {
	src := `status=draft, ?tags, ->Home, ||name||status||`
	assert.Equal(t, src, ParseMacro(src).String())
}
