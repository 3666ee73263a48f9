package reproduction

import (
	"ganado360/internal/domain/inventory"
)

// MaxAncestorGenerations acota el árbol a padres y abuelos.
const MaxAncestorGenerations = 2

// NodeStatus distingue un hueco sin dato de una referencia rota.
type NodeStatus string

const (
	NodeAbsent  NodeStatus = "absent"  // no hay id registrado
	NodeUnknown NodeStatus = "unknown" // hay id pero no hay animal con ese id
	NodePresent NodeStatus = "present"
)

type PedigreeNode struct {
	ID     string
	Status NodeStatus
	Animal *inventory.Animal
}

func (n PedigreeNode) Present() bool { return n.Status == NodePresent }

// Pedigree es el árbol de 3 generaciones más los hijos directos.
// Los 6 slots de ancestros siempre existen; los vacíos quedan NodeAbsent.
type Pedigree struct {
	Target PedigreeNode

	Mother PedigreeNode
	Father PedigreeNode

	MaternalGrandmother PedigreeNode
	MaternalGrandfather PedigreeNode
	PaternalGrandmother PedigreeNode
	PaternalGrandfather PedigreeNode

	// Descendants en el orden en que aparecen las aristas.
	Descendants []PedigreeNode

	// CycleDetected marca datos inconsistentes: el animal aparece entre sus
	// propios ancestros o descendientes.
	CycleDetected bool
}

// GenealogyIndex indexa aristas por hijo. Si hubiera más de una arista para el
// mismo hijo (dato sucio), gana la primera.
type GenealogyIndex map[string]Genealogia

func IndexByHijo(edges []Genealogia) GenealogyIndex {
	idx := make(GenealogyIndex, len(edges))
	for _, e := range edges {
		if e.Hijo == "" {
			continue
		}
		if _, dup := idx[e.Hijo]; dup {
			continue
		}
		idx[e.Hijo] = e
	}
	return idx
}

// Parents devuelve (madre, padre) registrados para id; "" si no hay.
func (idx GenealogyIndex) Parents(id string) (string, string) {
	if id == "" {
		return "", ""
	}
	e, ok := idx[id]
	if !ok {
		return "", ""
	}
	return e.Madre, e.Padre
}

// BuildPedigree reconstruye el árbol de targetID a partir de las aristas y el
// índice de animales. Nunca falla: lo que falta queda como NodeAbsent/NodeUnknown.
func BuildPedigree(targetID string, edges []Genealogia, animals map[string]inventory.Animal) Pedigree {
	idx := IndexByHijo(edges)

	// Slots en orden de heap: 0 target, 1-2 padres, 3-6 abuelos.
	// Los padres del slot i van en 2i+1 (madre) y 2i+2 (padre).
	const slots = 1<<(MaxAncestorGenerations+1) - 1
	var ids [slots]string
	ids[0] = targetID
	for i := 0; 2*i+2 < slots; i++ {
		ids[2*i+1], ids[2*i+2] = idx.Parents(ids[i])
	}

	resolve := func(id string) PedigreeNode {
		return resolveNode(id, animals)
	}

	p := Pedigree{
		Target:              resolve(ids[0]),
		Mother:              resolve(ids[1]),
		Father:              resolve(ids[2]),
		MaternalGrandmother: resolve(ids[3]),
		MaternalGrandfather: resolve(ids[4]),
		PaternalGrandmother: resolve(ids[5]),
		PaternalGrandfather: resolve(ids[6]),
		Descendants:         []PedigreeNode{},
	}

	ancestors := make(map[string]struct{}, slots-1)
	for _, id := range ids[1:] {
		if id == "" {
			continue
		}
		ancestors[id] = struct{}{}
		if id == targetID {
			p.CycleDetected = true
		}
	}

	if targetID == "" {
		return p
	}

	// Escaneo lineal: el volumen es el de una finca.
	for _, e := range edges {
		if e.Hijo == "" || (e.Madre != targetID && e.Padre != targetID) {
			continue
		}
		if e.Hijo == targetID {
			p.CycleDetected = true
		}
		if _, isAncestor := ancestors[e.Hijo]; isAncestor {
			p.CycleDetected = true
		}
		p.Descendants = append(p.Descendants, resolve(e.Hijo))
	}

	return p
}

func resolveNode(id string, animals map[string]inventory.Animal) PedigreeNode {
	if id == "" {
		return PedigreeNode{Status: NodeAbsent}
	}
	a, ok := animals[id]
	if !ok {
		return PedigreeNode{ID: id, Status: NodeUnknown}
	}
	return PedigreeNode{ID: id, Status: NodePresent, Animal: &a}
}

// WouldCreateCycle indica si agregar edge haría que edge.Hijo sea ancestro de
// sí mismo. Recorre toda la ascendencia (sin tope de generaciones).
func WouldCreateCycle(edges []Genealogia, edge Genealogia) bool {
	if edge.Hijo == "" {
		return false
	}
	if edge.Madre == edge.Hijo || edge.Padre == edge.Hijo {
		return true
	}

	idx := IndexByHijo(edges)
	visited := map[string]struct{}{}
	stack := []string{edge.Madre, edge.Padre}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == "" {
			continue
		}
		if id == edge.Hijo {
			return true
		}
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		m, f := idx.Parents(id)
		stack = append(stack, m, f)
	}
	return false
}
