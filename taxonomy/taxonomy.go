package taxonomy

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

var (
	ErrUnresolved    = errors.New("unresolved taxonomy reference")
	ErrMalformedTool = errors.New("malformed tool annotation")
	ErrDuplicate     = errors.New("duplicate predicate")
)

// ID indexes a predicate in its taxonomy arena.
type ID int

const None ID = -1

type Kind int

const (
	Root Kind = iota
	Abstract
	Leaf
	Empty
	ArtificialLeaf
)

var kindNames = map[Kind]string{
	Root:           "root",
	Abstract:       "abstract",
	Leaf:           "leaf",
	Empty:          "empty",
	ArtificialLeaf: "artificial-leaf",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

type Role int

const (
	Operation Role = iota
	Data
)

func (r Role) String() string {
	switch r {
	case Operation:
		return "operation"
	case Data:
		return "data"
	default:
		return "role(" + strconv.Itoa(int(r)) + ")"
	}
}

// AuxOp marks helper predicates standing for a combination of others.
type AuxOp int

const (
	NoAux AuxOp = iota
	And
	Or
)

func (o AuxOp) String() string {
	return map[AuxOp]string{NoAux: "", And: "and", Or: "or"}[o]
}

type Predicate struct {
	ID       ID
	IRI      string
	Label    string
	Root     ID
	Kind     Kind
	Role     Role
	Relevant bool
	Subs     []ID
	Supers   []ID

	// Aux and Parts are set only on helper predicates, which never take
	// part in sub/super links.
	Aux   AuxOp
	Parts []ID
}

// IsAux reports whether p is a helper predicate.
func (p *Predicate) IsAux() bool { return p.Aux != NoAux }

func (p *Predicate) String() string {
	if p.IsAux() {
		return p.Label
	}
	if p.Label != "" {
		return p.Label
	}
	return p.IRI
}

// Taxonomy is an arena of predicates covering one operation taxonomy and
// any number of data dimensions.
type Taxonomy struct {
	preds     []*Predicate
	byIRI     map[string]ID
	byLabel   map[string]ID
	opRoot    ID
	dataRoots []ID
	empty     ID
	aux       map[string]ID
	modules   []*Module
	modOf     map[ID]*Module
	plain     bool
}

func New() *Taxonomy {
	t := &Taxonomy{
		byIRI:   map[string]ID{},
		byLabel: map[string]ID{},
		aux:     map[string]ID{},
		modOf:   map[ID]*Module{},
		opRoot:  None,
	}
	t.empty = t.push(&Predicate{
		IRI:      "empty",
		Label:    "empty",
		Kind:     Empty,
		Role:     Data,
		Relevant: true,
	})
	t.preds[t.empty].Root = t.empty
	return t
}

func (t *Taxonomy) push(p *Predicate) ID {
	p.ID = ID(len(t.preds))
	t.preds = append(t.preds, p)
	if p.IRI != "" {
		t.byIRI[p.IRI] = p.ID
	}
	if p.Label != "" {
		if _, ok := t.byLabel[p.Label]; !ok {
			t.byLabel[p.Label] = p.ID
		}
	}
	return p.ID
}

// AddRoot adds the root of the operation taxonomy or of a data dimension.
// There is exactly one operation root.
func (t *Taxonomy) AddRoot(iri, label string, role Role) (ID, error) {
	if _, ok := t.byIRI[iri]; ok {
		return None, fmt.Errorf("%w: %q", ErrDuplicate, iri)
	}
	if role == Operation && t.opRoot != None {
		return None, fmt.Errorf("%w: second operation root %q", ErrDuplicate, iri)
	}
	id := t.push(&Predicate{IRI: iri, Label: label, Kind: Root, Role: role})
	t.preds[id].Root = id
	if role == Operation {
		t.opRoot = id
	} else {
		t.dataRoots = append(t.dataRoots, id)
	}
	return id, nil
}

// Add adds a predicate below the given parents, which must already exist
// and belong to one dimension. The predicate starts as a leaf and becomes
// abstract once something is added below it.
func (t *Taxonomy) Add(iri, label string, parents ...ID) (ID, error) {
	if len(parents) == 0 {
		return None, fmt.Errorf("%w: %q has no parent", ErrUnresolved, iri)
	}
	if _, ok := t.byIRI[iri]; ok {
		return None, fmt.Errorf("%w: %q", ErrDuplicate, iri)
	}
	root := None
	for _, par := range parents {
		pp := t.Get(par)
		if pp == nil || pp.IsAux() || pp.Kind == Empty {
			return None, fmt.Errorf("%w: parent %d of %q", ErrUnresolved, par, iri)
		}
		if root != None && pp.Root != root {
			return None, fmt.Errorf("%w: %q spans dimensions", ErrUnresolved, iri)
		}
		root = pp.Root
	}
	rp := t.preds[root]
	id := t.push(&Predicate{IRI: iri, Label: label, Kind: Leaf, Role: rp.Role, Root: root})
	for _, par := range parents {
		t.link(par, id)
	}
	return id, nil
}

// Link adds an extra sub link between existing predicates of one dimension.
func (t *Taxonomy) Link(parent, child ID) error {
	pp, cp := t.Get(parent), t.Get(child)
	if pp == nil || cp == nil || pp.IsAux() || cp.IsAux() {
		return fmt.Errorf("%w: link %d -> %d", ErrUnresolved, parent, child)
	}
	if pp.Root != cp.Root || cp.Kind == Root {
		return fmt.Errorf("%w: link %q -> %q crosses dimensions", ErrUnresolved, pp.IRI, cp.IRI)
	}
	if t.isBelow(parent, child) || parent == child {
		return fmt.Errorf("%w: link %q -> %q makes a cycle", ErrUnresolved, pp.IRI, cp.IRI)
	}
	t.link(parent, child)
	return nil
}

func (t *Taxonomy) link(parent, child ID) {
	pp := t.preds[parent]
	if slices.Contains(pp.Subs, child) {
		return
	}
	pp.Subs = append(pp.Subs, child)
	if pp.Kind == Leaf || pp.Kind == ArtificialLeaf {
		pp.Kind = Abstract
	}
	cp := t.preds[child]
	cp.Supers = append(cp.Supers, parent)
}

// isBelow reports whether a is a descendant of b.
func (t *Taxonomy) isBelow(a, b ID) bool {
	seen := map[ID]bool{}
	var walk func(ID) bool
	walk = func(id ID) bool {
		if id == a {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		for _, s := range t.preds[id].Subs {
			if walk(s) {
				return true
			}
		}
		return false
	}
	return walk(b)
}

func (t *Taxonomy) Get(id ID) *Predicate {
	if id < 0 || int(id) >= len(t.preds) {
		return nil
	}
	return t.preds[id]
}

// Lookup resolves a predicate by IRI, falling back to its label.
func (t *Taxonomy) Lookup(name string) (ID, bool) {
	if id, ok := t.byIRI[name]; ok {
		return id, true
	}
	id, ok := t.byLabel[name]
	return id, ok
}

// Resolve is Lookup with a role check and a descriptive error.
func (t *Taxonomy) Resolve(name string, role Role) (ID, error) {
	id, ok := t.Lookup(name)
	if !ok {
		return None, fmt.Errorf("%w: %q", ErrUnresolved, name)
	}
	if p := t.preds[id]; p.Role != role {
		return None, fmt.Errorf("%w: %q is %s, want %s", ErrUnresolved, name, p.Role, role)
	}
	return id, nil
}

func (t *Taxonomy) Len() int { return len(t.preds) }

func (t *Taxonomy) OperationRoot() ID { return t.opRoot }

func (t *Taxonomy) DataRoots() []ID { return slices.Clone(t.dataRoots) }

// Empty returns the distinguished type standing for absence of data.
func (t *Taxonomy) Empty() ID { return t.empty }

// AllDims returns the helper predicate holding when every relevant data
// dimension is asserted. Call it once relevance is settled.
func (t *Taxonomy) AllDims() ID {
	var roots []ID
	for _, r := range t.dataRoots {
		if t.preds[r].Relevant {
			roots = append(roots, r)
		}
	}
	return t.auxOf(And, Data, roots, "all_dimensions")
}

// MarkRelevant flags id as relevant along with all its ancestors and
// descendants. Relevance is never cleared.
func (t *Taxonomy) MarkRelevant(id ID) {
	p := t.Get(id)
	if p == nil {
		return
	}
	if p.IsAux() {
		for _, part := range p.Parts {
			t.MarkRelevant(part)
		}
		p.Relevant = true
		return
	}
	p.Relevant = true
	t.markUp(id)
	t.markDown(id)
}

func (t *Taxonomy) markUp(id ID) {
	for _, s := range t.preds[id].Supers {
		t.preds[s].Relevant = true
		t.markUp(s)
	}
}

func (t *Taxonomy) markDown(id ID) {
	for _, s := range t.preds[id].Subs {
		t.preds[s].Relevant = true
		t.markDown(s)
	}
}

// AddPlainLeaves gives every relevant data predicate with sub-predicates an
// artificial leaf, so that the predicate itself can be instantiated
// without committing to one of its subs. It runs once.
func (t *Taxonomy) AddPlainLeaves() {
	if t.plain {
		return
	}
	t.plain = true
	n := len(t.preds)
	for i := 0; i < n; i++ {
		p := t.preds[i]
		if p.Role != Data || p.IsAux() || !p.Relevant || len(p.Subs) == 0 {
			continue
		}
		id := t.push(&Predicate{
			IRI:      p.IRI + "_plain",
			Label:    p.Label + "_plain",
			Kind:     ArtificialLeaf,
			Role:     Data,
			Root:     p.Root,
			Relevant: true,
		})
		t.link(p.ID, id)
	}
	for _, m := range t.modules {
		if !t.preds[m.Pred].Relevant {
			continue
		}
		m.Produced = make([]ID, len(m.Outputs))
		for i, o := range m.Outputs {
			m.Produced[i] = t.Plain(o)
		}
	}
}

// plainLeaf returns the artificial leaf below id, or id when it has none.
func (t *Taxonomy) plainLeaf(id ID) ID {
	for _, s := range t.preds[id].Subs {
		if t.preds[s].Kind == ArtificialLeaf {
			return s
		}
	}
	return id
}

// Plain returns the data predicate id with every abstract type in it
// replaced by its artificial leaf, so that an instance of it cannot be
// narrowed to a sub-type. It is id itself when nothing changes.
func (t *Taxonomy) Plain(id ID) ID {
	p := t.Get(id)
	if p == nil || p.Role != Data || p.Kind == Empty {
		return id
	}
	if !p.IsAux() {
		return t.plainLeaf(id)
	}
	parts := make([]ID, len(p.Parts))
	changed := false
	for i, q := range p.Parts {
		parts[i] = t.Plain(q)
		changed = changed || parts[i] != q
	}
	if !changed {
		return id
	}
	return t.auxOf(p.Aux, Data, parts, "")
}

// RelevantSubs returns the relevant direct sub-predicates of id.
func (t *Taxonomy) RelevantSubs(id ID) []ID {
	var res []ID
	for _, s := range t.preds[id].Subs {
		if t.preds[s].Relevant {
			res = append(res, s)
		}
	}
	return res
}

// Leaves returns the relevant predicates below (and including) root that
// have no relevant sub-predicates, in arena order.
func (t *Taxonomy) Leaves(root ID) []ID {
	var res []ID
	for _, id := range t.Descendants(root) {
		if len(t.RelevantSubs(id)) == 0 {
			res = append(res, id)
		}
	}
	return res
}

// Descendants returns the relevant predicates reachable from root through
// relevant sub links, root included, in arena order.
func (t *Taxonomy) Descendants(root ID) []ID {
	rp := t.Get(root)
	if rp == nil || !rp.Relevant {
		return nil
	}
	seen := map[ID]bool{}
	var walk func(ID)
	walk = func(id ID) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, s := range t.RelevantSubs(id) {
			walk(s)
		}
	}
	walk(root)
	res := make([]ID, 0, len(seen))
	for id := range seen {
		res = append(res, id)
	}
	slices.Sort(res)
	return res
}

// IsA reports whether a equals b or is a descendant of b.
func (t *Taxonomy) IsA(a, b ID) bool {
	return a == b || t.isBelow(a, b)
}

// Aux returns the helper predicate combining parts with op. Helpers are
// shared between equal combinations; a single part is returned as is.
func (t *Taxonomy) Aux(op AuxOp, role Role, parts ...ID) (ID, error) {
	if op == NoAux || len(parts) == 0 {
		return None, fmt.Errorf("%w: empty %s combination", ErrMalformedTool, op)
	}
	for _, p := range parts {
		pp := t.Get(p)
		if pp == nil || pp.Role != role {
			return None, fmt.Errorf("%w: part %d is not a %s predicate", ErrUnresolved, p, role)
		}
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return t.auxOf(op, role, parts, ""), nil
}

func (t *Taxonomy) auxOf(op AuxOp, role Role, parts []ID, label string) ID {
	sorted := slices.Clone(parts)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	strs := make([]string, len(sorted))
	for i, p := range sorted {
		strs[i] = strconv.Itoa(int(p))
	}
	key := op.String() + "(" + strings.Join(strs, ",") + ")"
	if id, ok := t.aux[key]; ok {
		return id
	}
	if label == "" {
		names := make([]string, len(sorted))
		for i, p := range sorted {
			names[i] = t.preds[p].String()
		}
		sep := " & "
		if op == Or {
			sep = " | "
		}
		label = "(" + strings.Join(names, sep) + ")"
	}
	id := ID(len(t.preds))
	t.preds = append(t.preds, &Predicate{
		ID:       id,
		IRI:      key,
		Label:    label,
		Kind:     Abstract,
		Role:     role,
		Root:     None,
		Relevant: true,
		Aux:      op,
		Parts:    sorted,
	})
	t.aux[key] = id
	return id
}

// AuxPredicates returns every helper predicate of the given role.
func (t *Taxonomy) AuxPredicates(role Role) []ID {
	var res []ID
	for _, p := range t.preds {
		if p.IsAux() && p.Role == role {
			res = append(res, p.ID)
		}
	}
	return res
}

// Instance builds the predicate describing one data instance. Each group
// lists alternative types within a single dimension; groups are combined
// across dimensions.
func (t *Taxonomy) Instance(groups ...[]ID) (ID, error) {
	if len(groups) == 0 {
		return None, fmt.Errorf("%w: data instance without types", ErrMalformedTool)
	}
	dims := map[ID]bool{}
	conj := make([]ID, 0, len(groups))
	for _, g := range groups {
		if len(g) == 0 {
			return None, fmt.Errorf("%w: empty type group", ErrMalformedTool)
		}
		root := None
		for _, id := range g {
			p := t.Get(id)
			if p == nil || p.Role != Data || p.IsAux() || p.Kind == Empty {
				return None, fmt.Errorf("%w: %d is not a data type", ErrMalformedTool, id)
			}
			if root != None && p.Root != root {
				return None, fmt.Errorf("%w: %q mixes dimensions", ErrMalformedTool, p.IRI)
			}
			root = p.Root
		}
		if dims[root] {
			return None, fmt.Errorf("%w: dimension %q given twice", ErrMalformedTool, t.preds[root].IRI)
		}
		dims[root] = true
		d, err := t.Aux(Or, Data, g...)
		if err != nil {
			return None, err
		}
		conj = append(conj, d)
	}
	return t.Aux(And, Data, conj...)
}

// Types returns the plain types an instance predicate is made of.
func (t *Taxonomy) Types(id ID) []ID {
	p := t.Get(id)
	if p == nil {
		return nil
	}
	if !p.IsAux() {
		return []ID{id}
	}
	var res []ID
	for _, part := range p.Parts {
		res = append(res, t.Types(part)...)
	}
	return res
}
