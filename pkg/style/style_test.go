package style

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/entitygraph/pkg/errors"
	"github.com/matzehuels/entitygraph/pkg/graph"
)

func ontologyGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			graph.Primary("chebi:18248", "cmso:Element"),
			graph.Primary("sample:1", "cmso:ChemicalSpecies"),
			graph.Primary("sample:2", "cmso:ChemicalSpecies"),
			graph.Primary("plain", ""),
			graph.Attribute("sample:1", "hasSymbol", "Fe"),
			graph.Attribute("sample:1", "hasElementRatio", "1.0"),
		},
		Links: []graph.Link{
			{Source: "sample:1", Target: "chebi:18248", Category: graph.CategoryNonAttribute, RelationType: "hasElement", Visible: true},
			{Source: "sample:1", Target: "sample:1_Fe", Category: graph.CategoryAttribute, RelationType: "hasSymbol", Visible: true},
			{Source: "sample:1", Target: "sample:1_1.0", Category: graph.CategoryAttribute, RelationType: "hasElementRatio", Visible: true},
		},
	}
}

func newTestLogger(buf *bytes.Buffer) *log.Logger {
	return log.NewWithOptions(buf, log.Options{Level: log.DebugLevel})
}

func TestPalette(t *testing.T) {
	p := NewPalette()
	if got := p.Color("a"); got != "#1f77b4" {
		t.Errorf("first color = %s, want #1f77b4", got)
	}
	if got := p.Color("b"); got != "#ff7f0e" {
		t.Errorf("second color = %s, want #ff7f0e", got)
	}
	if got := p.Color("a"); got != "#1f77b4" {
		t.Errorf("repeat color = %s, want #1f77b4", got)
	}
	for i := 0; i < 8; i++ {
		p.Color(string(rune('c' + i)))
	}
	if got := p.Color("wrap"); got != "#1f77b4" {
		t.Errorf("eleventh color = %s, want wrap to #1f77b4", got)
	}
	if p.Len() != 11 {
		t.Errorf("Len() = %d, want 11", p.Len())
	}
}

func TestResolveWithoutConfiguration(t *testing.T) {
	g := ontologyGraph()
	s := NewResolver(nil, nil).Resolve(g)

	want := []struct {
		color, group string
		radius       float64
	}{
		{"#1f77b4", "cmso:Element", PrimaryRadius},
		{"#ff7f0e", "cmso:ChemicalSpecies", PrimaryRadius},
		{"#ff7f0e", "cmso:ChemicalSpecies", PrimaryRadius},
		{"#2ca02c", DefaultPrimaryLabel, PrimaryRadius},
		{"#d62728", "hasSymbol", AttributeRadius},
		{"#9467bd", "hasElementRatio", AttributeRadius},
	}
	for i, w := range want {
		got := s.Nodes[i]
		if got.Color != w.color || got.Group != w.group || got.Radius != w.radius {
			t.Errorf("node %s = %+v, want color %s group %s radius %v", g.Nodes[i].ID, got, w.color, w.group, w.radius)
		}
	}
	if s.Nodes[4].Label != "Fe" {
		t.Errorf("attribute label = %q, want Fe", s.Nodes[4].Label)
	}
	if s.Nodes[0].Label != "chebi:18248" {
		t.Errorf("primary label = %q, want id", s.Nodes[0].Label)
	}
}

func TestResolveLinks(t *testing.T) {
	s := NewResolver(nil, nil).Resolve(ontologyGraph())
	if s.Links[0].Marker != graph.MarkerArrow || s.Links[0].Distance != 70 {
		t.Errorf("structural link = %+v, want arrow at 70", s.Links[0])
	}
	if s.Links[1].Marker != graph.MarkerNone || s.Links[1].Distance != 35 {
		t.Errorf("attribute link = %+v, want no marker at 35", s.Links[1])
	}
	if s.Links[0].Color != LinkColor {
		t.Errorf("link color = %s, want %s", s.Links[0].Color, LinkColor)
	}
}

func TestResolvePrecedence(t *testing.T) {
	cfg := Configuration{{
		Label:       "Entity",
		Color:       "#112233",
		Description: "Any entity",
		Properties: []map[string]PropertyStyle{
			{"hasSymbol": {Label: "Symbol", Color: "#abcdef", Description: "Chemical symbol"}},
			{"hasElementRatio": {Label: "Ratio"}},
		},
		PrimaryNodeConfigurations: []TypeRule{
			{TypeRegEx: "ChemicalSpecies$", NodeLabel: "Species", NodeColor: "#00ff00"},
			{TypeRegEx: "cmso:", NodeLabel: "CMSO"},
		},
	}}
	g := ontologyGraph()
	s := NewResolver(cfg, nil).Resolve(g)

	tests := []struct {
		id, color, group, desc string
	}{
		{"chebi:18248", "#112233", "CMSO", ""},
		{"sample:1", "#00ff00", "Species", ""},
		{"plain", "#112233", "Entity", "Any entity"},
		{"sample:1_Fe", "#abcdef", "Symbol", "Chemical symbol"},
		{"sample:1_1.0", "#1f77b4", "Ratio", ""},
	}
	idx := g.Index()
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := s.Nodes[idx[tt.id]]
			if got.Color != tt.color || got.Group != tt.group || got.Description != tt.desc {
				t.Errorf("style = %+v, want color %s group %s desc %q", got, tt.color, tt.group, tt.desc)
			}
		})
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg := Configuration{{Properties: []map[string]PropertyStyle{{"other": {Label: "Other"}}}}}
	s := NewResolver(cfg, nil).Resolve(ontologyGraph())
	if s.Nodes[3].Color != DefaultPrimaryColor || s.Nodes[3].Group != DefaultPrimaryLabel {
		t.Errorf("untyped primary = %+v, want %s/%s", s.Nodes[3], DefaultPrimaryColor, DefaultPrimaryLabel)
	}
}

func TestResolveInvalidEntriesSkipped(t *testing.T) {
	var buf bytes.Buffer
	cfg := Configuration{{
		Properties: []map[string]PropertyStyle{{"hasSymbol": {Color: `red" onload="x`}}},
		PrimaryNodeConfigurations: []TypeRule{
			{TypeRegEx: "([", NodeColor: "#ff0000"},
			{TypeRegEx: "Element$", NodeColor: "#0000ff"},
		},
	}}
	s := NewResolver(cfg, newTestLogger(&buf)).Resolve(ontologyGraph())

	if s.Nodes[0].Color != "#0000ff" {
		t.Errorf("Element color = %s, want #0000ff from the valid rule", s.Nodes[0].Color)
	}
	if strings.Contains(s.Nodes[4].Color, "onload") {
		t.Errorf("unsafe color leaked: %s", s.Nodes[4].Color)
	}
	out := buf.String()
	if !strings.Contains(out, "ignoring type rule") || !strings.Contains(out, "ignoring color") {
		t.Errorf("expected warnings, got %q", out)
	}
}

func TestResolveDeterministic(t *testing.T) {
	g := ontologyGraph()
	r := NewResolver(nil, nil)
	a, b := r.Resolve(g), r.Resolve(g)
	for i := range a.Nodes {
		if a.Nodes[i] != b.Nodes[i] {
			t.Errorf("node %d: %+v != %+v", i, a.Nodes[i], b.Nodes[i])
		}
	}
}

func TestLegend(t *testing.T) {
	g := ontologyGraph()
	// A second key collapsing onto an existing attribute node still gets a row.
	g.Links = append(g.Links, graph.Link{Source: "sample:1", Target: "sample:1_Fe", Category: graph.CategoryAttribute, RelationType: "symbol", Visible: true})

	cfg := Configuration{{
		Label: "Entity",
		Properties: []map[string]PropertyStyle{
			{"hasSymbol": {Label: "Symbol", Description: "Chemical symbol"}},
			{"unused": {Label: "Unused"}},
		},
		PrimaryNodeConfigurations: []TypeRule{{TypeRegEx: "ChemicalSpecies$", NodeLabel: "Species"}},
	}}
	s := NewResolver(cfg, nil).Resolve(g)

	var labels []string
	for _, row := range s.Legend {
		labels = append(labels, row.Label)
	}
	got := strings.Join(labels, ",")
	want := "Entity,Species,Symbol,hasElementRatio,symbol"
	if got != want {
		t.Errorf("legend = %s, want %s", got, want)
	}
	for _, row := range s.Legend {
		if row.Label == "Symbol" && row.Description != "Chemical symbol" {
			t.Errorf("Symbol description = %q", row.Description)
		}
		if row.Color == "" {
			t.Errorf("row %s has no color", row.Label)
		}
	}
}

func TestLegendEmptyGraph(t *testing.T) {
	s := NewResolver(nil, nil).Resolve(graph.Graph{})
	if len(s.Legend) != 0 {
		t.Errorf("legend = %+v, want empty", s.Legend)
	}
}

func TestLegendRowPerLabelAndColor(t *testing.T) {
	g := graph.Graph{Nodes: []graph.Node{
		graph.Primary("r", "ex:Red"),
		graph.Primary("b", "ex:Blue"),
		graph.Primary("r2", "ex:Red"),
	}}
	cfg := Configuration{{PrimaryNodeConfigurations: []TypeRule{
		{TypeRegEx: "Red$", NodeLabel: "X", NodeColor: "#ff0000"},
		{TypeRegEx: "Blue$", NodeLabel: "X", NodeColor: "#0000ff"},
	}}}
	s := NewResolver(cfg, nil).Resolve(g)

	var rows []string
	for _, row := range s.Legend {
		rows = append(rows, row.Label+" "+row.Color)
	}
	if got, want := strings.Join(rows, ","), "X #ff0000,X #0000ff"; got != want {
		t.Errorf("legend = %s, want %s", got, want)
	}

	// Untyped nodes without configuration each take their own palette color.
	untyped := graph.Graph{Nodes: []graph.Node{graph.Primary("a", ""), graph.Primary("b", "")}}
	s = NewResolver(nil, nil).Resolve(untyped)
	rows = rows[:0]
	for _, row := range s.Legend {
		rows = append(rows, row.Label+" "+row.Color)
	}
	if got, want := strings.Join(rows, ","), "Primary Node #1f77b4,Primary Node #ff7f0e"; got != want {
		t.Errorf("untyped legend = %s, want %s", got, want)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"blank", "", 0, false},
		{"null", "null", 0, false},
		{"empty array", "[]", 0, false},
		{"one entry", `[{"label":"x","properties":[{"k":{"color":"#fff"}}]}]`, 1, false},
		{"missing regex kept", `[{"primaryNodeConfigurations":[{"nodeLabel":"x"}]}]`, 1, false},
		{"object", `{"label":"x"}`, 0, true},
		{"malformed", `[{`, 0, true},
		{"wrong shape", `[{"properties":"nope"}]`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
			if len(c) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(c), tt.wantLen)
			}
		})
	}
}

func TestParseOrEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := ParseOrEmpty([]byte("not json"), newTestLogger(&buf))
	if c != nil {
		t.Errorf("ParseOrEmpty() = %+v, want nil", c)
	}
	if !strings.Contains(buf.String(), "invalid configurations") {
		t.Errorf("missing warning, got %q", buf.String())
	}
}

func TestValidate(t *testing.T) {
	bad := Configuration{{PrimaryNodeConfigurations: []TypeRule{{NodeLabel: "x"}}}}
	if err := bad.Validate(); err == nil {
		t.Error("Validate() error = nil, want missing typeRegEx")
	}
	good := Configuration{{PrimaryNodeConfigurations: []TypeRule{{TypeRegEx: "x"}}}}
	if err := good.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"c.json": `[{"label":"FDO","properties":[{"license":{"label":"License","color":"#e377c2"}}]}]`,
		"c.yaml": `
- label: FDO
  properties:
    - license:
        label: License
        color: "#e377c2"
`,
		"c.toml": `
[[entries]]
label = "FDO"
properties = [{ license = { label = "License", color = "#e377c2" } }]
`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}
			c, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if len(c) != 1 || c[0].Label != "FDO" {
				t.Fatalf("LoadFile() = %+v", c)
			}
			ps := c[0].Properties[0]["license"]
			if ps.Label != "License" || ps.Color != "#e377c2" {
				t.Errorf("license style = %+v", ps)
			}
		})
	}

	t.Run("missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.json"))
		if !errors.Is(err, errors.ErrCodeFileNotFound) {
			t.Errorf("error = %v, want FILE_NOT_FOUND", err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		path := filepath.Join(dir, "c.ini")
		_ = os.WriteFile(path, []byte("x"), 0644)
		_, err := LoadFile(path)
		if !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("error = %v, want INVALID_FORMAT", err)
		}
	})
}

func TestConfigurationMarshal(t *testing.T) {
	data, err := Configuration(nil).Marshal()
	if err != nil || string(data) != "[]" {
		t.Errorf("Marshal(nil) = %s, %v", data, err)
	}
	cfg := Configuration{{Label: "x"}}
	data, err = cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	back, err := Parse(data)
	if err != nil || len(back) != 1 || back[0].Label != "x" {
		t.Errorf("Parse(Marshal()) = %+v, %v", back, err)
	}
}
