package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/entitygraph/pkg/graph"
)

func sampleLayout() graph.Layout {
	return graph.Layout{
		Width:  200,
		Height: 100,
		Nodes: []graph.PlacedNode{
			{Node: graph.Primary("a", "Dataset"), X: 50, Y: 20, Color: "#1f77b4", Radius: 10, Label: "a"},
			{Node: graph.Primary("b", ""), X: 150, Y: 80, Color: "#ff7f0e", Radius: 10, Label: "b"},
			{Node: graph.Attribute("a", "license", "MIT"), X: 60, Y: 60, Color: "#2ca02c", Radius: 7, Label: "MIT"},
		},
		Links: []graph.PlacedLink{
			{Link: graph.Link{Source: "a", Target: "b", Category: graph.CategoryNonAttribute, RelationType: "hasPart", Visible: true}, Color: "#d3d3d3", Marker: graph.MarkerArrow},
			{Link: graph.Link{Source: "a", Target: "a_MIT", Category: graph.CategoryAttribute, RelationType: "license", Visible: true}, Color: "#d3d3d3"},
		},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{})

	for _, want := range []string{
		"digraph G",
		`"a" [`,
		`"a_MIT" [`,
		`fillcolor="#1f77b4"`,
		`"a" -> "b" [`,
		`label="hasPart"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q", want)
		}
	}
	if strings.Contains(dot, "pos=") {
		t.Error("ToDOT() unpinned output has positions")
	}
}

func TestToDOT_AttributeLinksHaveNoArrow(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, `"a" -> "a_MIT"`) && !strings.Contains(line, "arrowhead=none") {
			t.Errorf("attribute link line = %q, want arrowhead=none", line)
		}
		if strings.Contains(line, `"a" -> "b"`) && strings.Contains(line, "arrowhead=none") {
			t.Errorf("structural link line = %q, want arrowhead", line)
		}
	}
}

func TestToDOT_Pinned(t *testing.T) {
	dot := ToDOT(sampleLayout(), Options{Pinned: true})

	if !strings.Contains(dot, "inputscale=72") {
		t.Error("ToDOT() pinned output missing inputscale")
	}
	// y is flipped against the layout height.
	if !strings.Contains(dot, `pos="50.00,80.00!"`) {
		t.Errorf("ToDOT() pinned output missing flipped position:\n%s", dot)
	}
}

func TestFmtLabel(t *testing.T) {
	l := sampleLayout()
	if got := fmtLabel(l.Nodes[2], false); got != "MIT" {
		t.Errorf("fmtLabel() = %q, want %q", got, "MIT")
	}
	if got := fmtLabel(l.Nodes[2], true); got != "license: MIT" {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, "license: MIT")
	}
	if got := fmtLabel(l.Nodes[0], true); got != "a" {
		t.Errorf("fmtLabel() primary = %q, want %q", got, "a")
	}
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"", EngineNeato, false},
		{"neato", EngineNeato, false},
		{"FDP", EngineFDP, false},
		{"dot", EngineDot, false},
		{"circo", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEngine(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEngine(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseEngine(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 10.00 20.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 10.00 20.00" width="10" height="20"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}
