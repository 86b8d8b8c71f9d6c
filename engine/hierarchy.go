/*
hierarchy.go - The organizational tree with per-category provision rates

PURPOSE:
  Models the management hierarchy as an arena: an id-indexed map of nodes
  with parent links as lookup keys, plus a separately maintained
  children-by-parent index. Parent/child are never mutually-owning
  references - the tree owns all nodes.

CRITICAL INVARIANTS:
  1. Exactly one root (the company), identified by a nil ParentID
  2. Every other node has exactly one parent that exists in the same tree
  3. No cycles: walking parent links from any node reaches the root in at
     most (tree depth) steps
  4. Every rate field is in [0,100] - validated at construction, so the
     cascade never has to re-check

MUTATIONS:
  AddNode, Reparent and RemoveNode keep the invariants: reparenting
  re-checks acyclicity before committing, removing a node reattaches its
  children to the removed node's parent, and the children index is rebuilt
  after every mutation.

SEE ALSO:
  - cascade.go: Walks ParentChain to attribute manager shares
  - snapshot.go: Reads owner + direct parent rates at capture time
*/
package engine

import (
	"sort"
)

// =============================================================================
// HIERARCHY NODE
// =============================================================================

type NodeType string

const (
	NodeRoot       NodeType = "root"
	NodeDivision   NodeType = "division"
	NodeDepartment NodeType = "department"
	NodeTeam       NodeType = "team"
	NodePerson     NodeType = "person"
)

// HierarchyNode is one entry in the organizational tree. The three rate
// fields are independent: a node can pay 40% on banking business and 25%
// on insurance business at the same time.
type HierarchyNode struct {
	ID       NodeID
	Name     string
	ParentID *NodeID // nil exactly for the root
	Type     NodeType
	Order    int // sibling sort key

	BankRate       Percent
	InsuranceRate  Percent
	RealEstateRate Percent

	// CareerLevel is the named rank that supplied this node's default
	// rates. Informational; the cascade only reads the rate fields.
	CareerLevel string
}

// Rate returns the node's rate for the given rate field. RateFieldNone
// always yields zero - the category carries no owner-payable provision.
func (n *HierarchyNode) Rate(f RateField) Percent {
	switch f {
	case RateFieldBank:
		return n.BankRate
	case RateFieldInsurance:
		return n.InsuranceRate
	case RateFieldRealEstate:
		return n.RealEstateRate
	default:
		return ZeroPercent()
	}
}

// IsRoot reports whether the node is the company node.
func (n *HierarchyNode) IsRoot() bool { return n.ParentID == nil }

func (n *HierarchyNode) validateRates() error {
	checks := []struct {
		field RateField
		value Percent
	}{
		{RateFieldBank, n.BankRate},
		{RateFieldInsurance, n.InsuranceRate},
		{RateFieldRealEstate, n.RealEstateRate},
	}
	for _, c := range checks {
		if !c.value.InRange() {
			return &InvalidRateError{NodeID: n.ID, Field: c.field, Value: c.value}
		}
	}
	return nil
}

// =============================================================================
// HIERARCHY TREE - Arena with children index
// =============================================================================

// HierarchyTree is an indexed collection of nodes. O(1) lookup by id,
// O(depth) parent-chain traversal, children pre-sorted by Order.
type HierarchyTree struct {
	nodes    map[NodeID]*HierarchyNode
	children map[NodeID][]NodeID
	root     NodeID
}

// BuildTree indexes and validates a node set. All structural invariants
// are enforced here so downstream computations can assume a well-formed
// tree.
func BuildTree(nodes []*HierarchyNode) (*HierarchyTree, error) {
	t := &HierarchyTree{
		nodes: make(map[NodeID]*HierarchyNode, len(nodes)),
	}

	var roots []NodeID
	for _, n := range nodes {
		if err := n.validateRates(); err != nil {
			return nil, err
		}
		t.nodes[n.ID] = n
		if n.ParentID == nil {
			roots = append(roots, n.ID)
		}
	}

	switch len(roots) {
	case 0:
		return nil, ErrNoRoot
	case 1:
		t.root = roots[0]
	default:
		return nil, ErrMultipleRoots
	}

	for _, n := range t.nodes {
		if n.ParentID != nil {
			if _, ok := t.nodes[*n.ParentID]; !ok {
				return nil, ErrOrphanParent
			}
		}
	}

	for _, n := range t.nodes {
		if err := t.checkAcyclic(n.ID); err != nil {
			return nil, err
		}
	}

	t.rebuildChildren()
	return t, nil
}

// checkAcyclic walks parent links from id; the walk must terminate at the
// root within len(nodes) steps.
func (t *HierarchyTree) checkAcyclic(id NodeID) error {
	path := []NodeID{id}
	current := t.nodes[id]
	for steps := 0; current.ParentID != nil; steps++ {
		if steps > len(t.nodes) {
			return &CycleError{NodeID: id, Path: path}
		}
		next, ok := t.nodes[*current.ParentID]
		if !ok {
			return ErrOrphanParent
		}
		path = append(path, next.ID)
		current = next
	}
	return nil
}

func (t *HierarchyTree) rebuildChildren() {
	t.children = make(map[NodeID][]NodeID, len(t.nodes))
	for _, n := range t.nodes {
		if n.ParentID != nil {
			t.children[*n.ParentID] = append(t.children[*n.ParentID], n.ID)
		}
	}
	for parent, ids := range t.children {
		sort.Slice(ids, func(i, j int) bool {
			a, b := t.nodes[ids[i]], t.nodes[ids[j]]
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			return a.ID < b.ID
		})
		t.children[parent] = ids
	}
}

// =============================================================================
// LOOKUPS
// =============================================================================

// Lookup returns the node with the given id.
func (t *HierarchyTree) Lookup(id NodeID) (*HierarchyNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Root returns the company node.
func (t *HierarchyTree) Root() *HierarchyNode {
	return t.nodes[t.root]
}

// Children returns the direct children of a node, Order-sorted.
func (t *HierarchyTree) Children(id NodeID) []*HierarchyNode {
	ids := t.children[id]
	out := make([]*HierarchyNode, len(ids))
	for i, cid := range ids {
		out[i] = t.nodes[cid]
	}
	return out
}

// ParentChain returns the ancestors of a node from its direct parent up
// to and including the root. Empty for the root itself. The cascade walks
// this chain and attributes manager deltas to every non-root ancestor.
func (t *HierarchyTree) ParentChain(id NodeID) []*HierarchyNode {
	var chain []*HierarchyNode
	current, ok := t.nodes[id]
	if !ok {
		return nil
	}
	for current.ParentID != nil {
		parent := t.nodes[*current.ParentID]
		chain = append(chain, parent)
		current = parent
	}
	return chain
}

// IsAncestor reports whether ancestorID lies on the parent chain of id.
// Used by the report builder to classify team revenue.
func (t *HierarchyTree) IsAncestor(ancestorID, id NodeID) bool {
	for _, n := range t.ParentChain(id) {
		if n.ID == ancestorID {
			return true
		}
	}
	return false
}

// Depth returns the number of parent links between the node and the root.
func (t *HierarchyTree) Depth(id NodeID) int {
	return len(t.ParentChain(id))
}

// Size returns the number of nodes in the tree.
func (t *HierarchyTree) Size() int { return len(t.nodes) }

// Nodes returns all nodes in depth-first Order-sorted traversal from the
// root. This is the canonical display order of the tree.
func (t *HierarchyTree) Nodes() []*HierarchyNode {
	var out []*HierarchyNode
	var walk func(id NodeID)
	walk = func(id NodeID) {
		out = append(out, t.nodes[id])
		for _, child := range t.children[id] {
			walk(child)
		}
	}
	walk(t.root)
	return out
}

// =============================================================================
// MUTATIONS - Each one revalidates and rebuilds the children index
// =============================================================================

// AddNode inserts a new node under an existing parent.
func (t *HierarchyTree) AddNode(n *HierarchyNode) error {
	if err := n.validateRates(); err != nil {
		return err
	}
	if n.ParentID == nil {
		return ErrMultipleRoots
	}
	if _, ok := t.nodes[*n.ParentID]; !ok {
		return ErrOrphanParent
	}
	t.nodes[n.ID] = n
	t.rebuildChildren()
	return nil
}

// Reparent moves a node (and implicitly its subtree) under a new parent.
// Rejected if the new parent lies inside the node's own subtree, which
// would create a cycle.
func (t *HierarchyTree) Reparent(id, newParentID NodeID) error {
	node, ok := t.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	if node.IsRoot() {
		return ErrMultipleRoots
	}
	if _, ok := t.nodes[newParentID]; !ok {
		return ErrOrphanParent
	}
	if id == newParentID || t.IsAncestor(id, newParentID) {
		return &CycleError{NodeID: id, Path: []NodeID{id, newParentID}}
	}
	node.ParentID = &newParentID
	t.rebuildChildren()
	return nil
}

// RemoveNode deletes a node; its children are reattached to the removed
// node's parent. The root cannot be removed.
func (t *HierarchyTree) RemoveNode(id NodeID) error {
	node, ok := t.nodes[id]
	if !ok {
		return ErrNodeNotFound
	}
	if node.IsRoot() {
		return ErrNoRoot
	}
	for _, childID := range t.children[id] {
		t.nodes[childID].ParentID = node.ParentID
	}
	delete(t.nodes, id)
	t.rebuildChildren()
	return nil
}
