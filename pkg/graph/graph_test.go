package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleGraph() Graph {
	return Graph{
		Nodes: []Node{
			Primary("A", ""),
			Primary("B", "cmso:Element"),
			Primary("C", ""),
			Attribute("A", "color", "red"),
		},
		Links: []Link{
			{Source: "A", Target: "B", Category: CategoryNonAttribute, RelationType: "ref", Visible: true},
			{Source: "C", Target: "A", Category: CategoryNonAttribute, RelationType: "ref", Visible: true},
			{Source: "A", Target: "A_red", Category: CategoryAttribute, RelationType: "color", Visible: true},
		},
		PrimaryNodeIDs: []string{"A", "B", "C"},
	}
}

func TestNodeVariants(t *testing.T) {
	p := Primary("A", "t")
	if !p.IsPrimary() || p.IsAttribute() {
		t.Errorf("Primary() category = %v", p.Category)
	}
	if p.DisplayLabel() != "A" {
		t.Errorf("DisplayLabel() = %q, want A", p.DisplayLabel())
	}

	a := Attribute("A", "color", "red")
	if a.ID != "A_red" {
		t.Errorf("Attribute().ID = %q, want A_red", a.ID)
	}
	if !a.IsAttribute() || a.DisplayLabel() != "red" || a.Key != "color" {
		t.Errorf("Attribute() = %+v", a)
	}
}

func TestNeighbors(t *testing.T) {
	g := sampleGraph()
	tests := []struct {
		id   string
		want string
	}{
		{"A", "B,C"},
		{"B", "A"},
		{"C", "A"},
		{"A_red", ""},
		{"missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got := strings.Join(g.Neighbors(tt.id), ",")
			if got != tt.want {
				t.Errorf("Neighbors(%s) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestNeighborsSelfLoop(t *testing.T) {
	g := Graph{
		Nodes: []Node{Primary("A", "")},
		Links: []Link{{Source: "A", Target: "A", Category: CategoryNonAttribute, Visible: true}},
	}
	if got := g.Neighbors("A"); len(got) != 0 {
		t.Errorf("Neighbors(A) = %v, want none", got)
	}
}

func TestCounts(t *testing.T) {
	p, a, s := sampleGraph().Counts()
	if p != 3 || a != 1 || s != 2 {
		t.Errorf("Counts() = %d,%d,%d, want 3,1,2", p, a, s)
	}
}

func TestValidate(t *testing.T) {
	g := sampleGraph()
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	g.Links = append(g.Links, Link{Source: "A", Target: "Z", Category: CategoryNonAttribute})
	if err := g.Validate(); err == nil {
		t.Error("Validate() error = nil, want unknown target")
	}
}

func TestGraphRoundTrip(t *testing.T) {
	g := sampleGraph()
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		t.Fatalf("WriteGraph() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"relationType": "ref"`) {
		t.Errorf("output missing relationType: %s", buf.String())
	}

	got, err := ReadGraph(&buf)
	if err != nil {
		t.Fatalf("ReadGraph() error = %v", err)
	}
	if len(got.Nodes) != 4 || len(got.Links) != 3 || len(got.PrimaryNodeIDs) != 3 {
		t.Errorf("round trip = %d nodes, %d links, %d ids", len(got.Nodes), len(got.Links), len(got.PrimaryNodeIDs))
	}
	if got.Nodes[1].Type != "cmso:Element" {
		t.Errorf("type lost: %+v", got.Nodes[1])
	}
}

func TestMarshalEmptyGraph(t *testing.T) {
	data, err := MarshalGraph(Graph{})
	if err != nil {
		t.Fatalf("MarshalGraph() error = %v", err)
	}
	s := string(data)
	for _, want := range []string{`"nodes": []`, `"links": []`, `"primaryNodeIds": []`} {
		if !strings.Contains(s, want) {
			t.Errorf("MarshalGraph(empty) missing %s: %s", want, s)
		}
	}
}

func TestReadGraphFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.json")
	data := `{"nodes":[{"id":"A","category":"non_attribute"}],"links":[{"source":"A","target":"B","category":"non_attribute","visible":true}]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadGraphFile(path); err == nil {
		t.Error("ReadGraphFile() error = nil, want dangling link error")
	}
}

func TestLayoutRoundTrip(t *testing.T) {
	l := Layout{
		Width:  800,
		Height: 600,
		Nodes: []PlacedNode{
			{Node: Primary("A", ""), X: 10, Y: 20, Color: "#1f77b4", Radius: 10, Label: "A"},
			{Node: Attribute("A", "color", "red"), X: 30, Y: 40, Color: "#ff7f0e", Radius: 7, Label: "red"},
		},
		Links: []PlacedLink{
			{Link: Link{Source: "A", Target: "A_red", Category: CategoryAttribute, RelationType: "color", Visible: true}, Color: "#d3d3d3", Distance: 35},
		},
		Legend: []LegendEntry{{Label: "color", Color: "#ff7f0e", Category: CategoryAttribute, Key: "color"}},
		Ticks:  300,
	}

	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteLayoutFile(l, path); err != nil {
		t.Fatalf("WriteLayoutFile() error = %v", err)
	}
	got, err := ReadLayoutFile(path)
	if err != nil {
		t.Fatalf("ReadLayoutFile() error = %v", err)
	}
	n, ok := got.Node("A_red")
	if !ok {
		t.Fatal("Node(A_red) not found")
	}
	if n.X != 30 || n.Key != "color" || n.Label != "red" {
		t.Errorf("Node(A_red) = %+v", n)
	}
	g := got.Graph()
	if len(g.PrimaryNodeIDs) != 1 || g.PrimaryNodeIDs[0] != "A" {
		t.Errorf("Graph().PrimaryNodeIDs = %v, want [A]", g.PrimaryNodeIDs)
	}
}

func TestUnmarshalLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Malformed", `{`},
		{"NoSize", `{"nodes":[],"links":[]}`},
		{"Dangling", `{"width":10,"height":10,"nodes":[],"links":[{"source":"A","target":"B"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalLayout([]byte(tt.data)); err == nil {
				t.Error("UnmarshalLayout() error = nil, want error")
			}
		})
	}
}
