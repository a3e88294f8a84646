package transform

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/entitygraph/pkg/entity"
	"github.com/matzehuels/entitygraph/pkg/graph"
)

var propertyKeys = []string{"ref", "color", "profile", "license"}

// genEntities builds batches where entity i is "e<i>" and each property draws
// from a small key and value space, so references and collisions are common.
func genEntities() gopter.Gen {
	return gen.SliceOf(gen.SliceOf(gen.IntRange(0, 11))).Map(func(rows [][]int) []entity.Entity {
		out := make([]entity.Entity, len(rows))
		for i, row := range rows {
			e := entity.Entity{ID: fmt.Sprintf("e%d", i)}
			for j, v := range row {
				key := propertyKeys[(v+j)%len(propertyKeys)]
				var val entity.Value
				switch {
				case v < 6:
					val = entity.String(fmt.Sprintf("e%d", v))
				case v < 10:
					val = entity.String(fmt.Sprintf("v%d", v))
				default:
					val = entity.Number(float64(v))
				}
				e.Properties.Set(key, val)
			}
			out[i] = e
		}
		return out
	})
}

func exclusionKeys(picks []int) []string {
	out := make([]string, len(picks))
	for i, p := range picks {
		out[i] = propertyKeys[p%len(propertyKeys)]
	}
	return out
}

func TestTransformLaws(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("transform is deterministic", prop.ForAll(
		func(ents []entity.Entity, picks []int, showPrimary, showAttrs bool) bool {
			tr := Transformer{ShowPrimaryLinks: showPrimary, ShowAttributes: showAttrs}
			excl := exclusionKeys(picks)
			return reflect.DeepEqual(tr.Transform(ents, excl), tr.Transform(ents, excl))
		},
		genEntities(),
		gen.SliceOf(gen.IntRange(0, 3)),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("references become structural links, everything else attribute links", prop.ForAll(
		func(ents []entity.Entity, showPrimary bool) bool {
			tr := Transformer{ShowPrimaryLinks: showPrimary, ShowAttributes: true}
			g := tr.Transform(ents, nil)

			ids := make(map[string]bool)
			for _, e := range ents {
				ids[e.ID] = true
			}
			for _, l := range g.Links {
				n, ok := g.Node(l.Target)
				if !ok {
					return false
				}
				switch l.Category {
				case graph.CategoryNonAttribute:
					if !ids[l.Target] || !n.IsPrimary() {
						return false
					}
				case graph.CategoryAttribute:
					if ids[n.Value] && n.IsAttribute() {
						return false
					}
				default:
					return false
				}
			}

			want := 0
			for _, e := range ents {
				for _, p := range e.Properties {
					if !p.Value.IsString() || !ids[p.Value.Text()] {
						want++
					} else if showPrimary {
						want++
					}
				}
			}
			return len(g.Links) == want
		},
		genEntities(),
		gen.Bool(),
	))

	properties.Property("excluded keys never produce attribute nodes or links", prop.ForAll(
		func(ents []entity.Entity, picks []int) bool {
			excl := exclusionKeys(picks)
			skip := make(map[string]bool)
			for _, k := range excl {
				skip[k] = true
			}
			g := New().Transform(ents, excl)
			for _, n := range g.Nodes {
				if n.IsAttribute() && skip[n.Key] {
					return false
				}
			}
			for _, l := range g.Links {
				if l.Category == graph.CategoryAttribute && skip[l.RelationType] {
					return false
				}
			}
			return true
		},
		genEntities(),
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.Property("only visible links are returned", prop.ForAll(
		func(ents []entity.Entity, showPrimary, showAttrs bool) bool {
			g := Transformer{ShowPrimaryLinks: showPrimary, ShowAttributes: showAttrs}.Transform(ents, nil)
			for _, l := range g.Links {
				if !l.Visible {
					return false
				}
			}
			return g.Validate() == nil
		},
		genEntities(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.Property("re-running on emitted nodes succeeds", prop.ForAll(
		func(ents []entity.Entity) bool {
			g := New().Transform(ents, nil)
			again := New().Transform(EntitiesFromNodes(g.Nodes), nil)
			return len(again.PrimaryNodeIDs) == len(g.Nodes)
		},
		genEntities(),
	))

	properties.TestingRun(t)
}
