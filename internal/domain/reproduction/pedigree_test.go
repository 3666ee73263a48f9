package reproduction

import (
	"fmt"
	"testing"

	"ganado360/internal/domain/inventory"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func animalsByID(ids ...string) map[string]inventory.Animal {
	out := make(map[string]inventory.Animal, len(ids))
	for _, id := range ids {
		out[id] = inventory.Animal{ID: id, Especie: "Bovino", Estado: inventory.EstadoActivo}
	}
	return out
}

func present(id string, animals map[string]inventory.Animal) PedigreeNode {
	a := animals[id]
	return PedigreeNode{ID: id, Status: NodePresent, Animal: &a}
}

func TestBuildPedigree_FullTree(t *testing.T) {
	animals := animalsByID("x", "m", "f", "mm", "mf", "fm", "ff", "c1", "c2")
	edges := []Genealogia{
		{ID: "g1", Madre: "m", Padre: "f", Hijo: "x"},
		{ID: "g2", Madre: "mm", Padre: "mf", Hijo: "m"},
		{ID: "g3", Madre: "fm", Padre: "ff", Hijo: "f"},
		{ID: "g4", Madre: "x", Padre: "z", Hijo: "c1"},
		{ID: "g5", Madre: "y", Padre: "x", Hijo: "c2"},
	}

	got := BuildPedigree("x", edges, animals)

	want := Pedigree{
		Target:              present("x", animals),
		Mother:              present("m", animals),
		Father:              present("f", animals),
		MaternalGrandmother: present("mm", animals),
		MaternalGrandfather: present("mf", animals),
		PaternalGrandmother: present("fm", animals),
		PaternalGrandfather: present("ff", animals),
		Descendants:         []PedigreeNode{present("c1", animals), present("c2", animals)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pedigree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPedigree_BoundedAtTwoGenerations(t *testing.T) {
	// Cadena de 5 generaciones: g0 <- g1 <- g2 <- g3 <- g4 (solo madres).
	ids := []string{"g0", "g1", "g2", "g3", "g4"}
	animals := animalsByID(ids...)
	var edges []Genealogia
	for i := 0; i < len(ids)-1; i++ {
		edges = append(edges, Genealogia{ID: fmt.Sprintf("e%d", i), Madre: ids[i+1], Hijo: ids[i]})
	}

	p := BuildPedigree("g0", edges, animals)

	assert.Equal(t, "g1", p.Mother.ID)
	assert.Equal(t, "g2", p.MaternalGrandmother.ID)

	seen := map[string]bool{}
	for _, n := range []PedigreeNode{p.Target, p.Mother, p.Father, p.MaternalGrandmother,
		p.MaternalGrandfather, p.PaternalGrandmother, p.PaternalGrandfather} {
		if n.ID != "" {
			seen[n.ID] = true
		}
	}
	assert.False(t, seen["g3"], "bisabuela no debe aparecer")
	assert.False(t, seen["g4"], "tatarabuela no debe aparecer")
	assert.False(t, p.CycleDetected)
}

func TestBuildPedigree_FatherWithoutMother(t *testing.T) {
	animals := animalsByID("x", "f")
	edges := []Genealogia{{ID: "g1", Padre: "f", Hijo: "x"}}

	var p Pedigree
	require.NotPanics(t, func() { p = BuildPedigree("x", edges, animals) })

	assert.Equal(t, NodePresent, p.Father.Status)
	assert.Equal(t, "f", p.Father.ID)
	assert.Equal(t, NodeAbsent, p.Mother.Status)
	assert.Nil(t, p.Mother.Animal)
	assert.Equal(t, NodeAbsent, p.MaternalGrandmother.Status)
	assert.Equal(t, NodeAbsent, p.MaternalGrandfather.Status)
	assert.Equal(t, NodeAbsent, p.PaternalGrandmother.Status)
	assert.Equal(t, NodeAbsent, p.PaternalGrandfather.Status)
	assert.Empty(t, p.Descendants)
}

func TestBuildPedigree_UnknownReferences(t *testing.T) {
	// La madre está registrada en la arista pero no existe como animal.
	animals := animalsByID("x")
	edges := []Genealogia{
		{ID: "g1", Madre: "ghost", Hijo: "x"},
		{ID: "g2", Madre: "x", Hijo: "lost-calf"},
	}

	p := BuildPedigree("x", edges, animals)

	assert.Equal(t, PedigreeNode{ID: "ghost", Status: NodeUnknown}, p.Mother)
	require.Len(t, p.Descendants, 1)
	assert.Equal(t, NodeUnknown, p.Descendants[0].Status)
	assert.Equal(t, "lost-calf", p.Descendants[0].ID)
}

func TestBuildPedigree_NoData(t *testing.T) {
	p := BuildPedigree("solo", nil, nil)

	assert.Equal(t, NodeUnknown, p.Target.Status)
	assert.Equal(t, NodeAbsent, p.Mother.Status)
	assert.Equal(t, NodeAbsent, p.Father.Status)
	assert.NotNil(t, p.Descendants)
	assert.Empty(t, p.Descendants)
}

func TestBuildPedigree_DescendantsKeepInputOrder(t *testing.T) {
	animals := animalsByID("x", "c3", "c1", "c2")
	edges := []Genealogia{
		{ID: "a", Madre: "x", Hijo: "c3"},
		{ID: "b", Madre: "other", Hijo: "zz"},
		{ID: "c", Madre: "x", Hijo: "c1"},
		{ID: "d", Padre: "x", Hijo: "c2"},
	}

	p := BuildPedigree("x", edges, animals)

	ids := make([]string, 0, len(p.Descendants))
	for _, d := range p.Descendants {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"c3", "c1", "c2"}, ids)
}

func TestBuildPedigree_DuplicateEdgeFirstWins(t *testing.T) {
	animals := animalsByID("x", "m1", "m2")
	edges := []Genealogia{
		{ID: "g1", Madre: "m1", Hijo: "x"},
		{ID: "g2", Madre: "m2", Hijo: "x"},
	}

	p := BuildPedigree("x", edges, animals)
	assert.Equal(t, "m1", p.Mother.ID)
}

func TestBuildPedigree_FlagsCycle(t *testing.T) {
	animals := animalsByID("a", "b")
	edges := []Genealogia{
		{ID: "g1", Madre: "b", Hijo: "a"},
		{ID: "g2", Madre: "a", Hijo: "b"},
	}

	p := BuildPedigree("a", edges, animals)

	assert.True(t, p.CycleDetected)
	// Se sigue devolviendo el árbol acotado.
	assert.Equal(t, "b", p.Mother.ID)
	assert.Equal(t, "a", p.MaternalGrandmother.ID)
}

func TestWouldCreateCycle(t *testing.T) {
	edges := []Genealogia{
		{Madre: "b", Hijo: "a"}, // b es madre de a
		{Padre: "c", Hijo: "b"}, // c es padre de b
	}

	tests := []struct {
		name string
		edge Genealogia
		want bool
	}{
		{"self parent", Genealogia{Madre: "x", Hijo: "x"}, true},
		{"grandchild as father of grandparent", Genealogia{Padre: "a", Hijo: "c"}, true},
		{"child as mother of parent", Genealogia{Madre: "a", Hijo: "b"}, true},
		{"unrelated", Genealogia{Madre: "z", Hijo: "y"}, false},
		{"new child of existing line", Genealogia{Madre: "a", Hijo: "d"}, false},
		{"empty hijo", Genealogia{Madre: "a"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WouldCreateCycle(edges, tc.edge))
		})
	}
}
