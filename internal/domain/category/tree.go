// Package category provides read-only lookups over the concept category
// taxonomy, stored as a flat {id, parentId} table.
package category

import (
	"strings"

	"github.com/okian/sportplanner/internal/domain/model"
)

const (
	// PathSeparator joins category names in a path label.
	PathSeparator = " > "
	// maxPathDepth bounds path labels to the three innermost levels.
	maxPathDepth = 3
)

// Tree indexes categories by id and by parent. Walks are iterative and stop
// at the first repeated node, so a corrupt (cyclic) table never hangs.
type Tree struct {
	nodes    map[int64]model.ConceptCategory
	children map[int64][]int64
}

// NewTree builds a Tree from a flat category list.
func NewTree(categories []model.ConceptCategory) *Tree {
	t := &Tree{
		nodes:    make(map[int64]model.ConceptCategory, len(categories)),
		children: make(map[int64][]int64),
	}
	for _, c := range categories {
		t.nodes[c.ID] = c
		if c.ParentID != nil {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
		}
	}
	return t
}

// Len returns the number of categories.
func (t *Tree) Len() int { return len(t.nodes) }

// Get returns a category by id.
func (t *Tree) Get(id int64) (model.ConceptCategory, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Lineage returns id followed by its ancestors, innermost first.
func (t *Tree) Lineage(id int64) []model.ConceptCategory {
	var out []model.ConceptCategory
	seen := make(map[int64]struct{})
	cur, ok := t.nodes[id]
	for ok {
		if _, dup := seen[cur.ID]; dup {
			break
		}
		seen[cur.ID] = struct{}{}
		out = append(out, cur)
		if cur.ParentID == nil {
			break
		}
		cur, ok = t.nodes[*cur.ParentID]
	}
	return out
}

// Ancestors returns the ids of id's ancestors, parent first.
func (t *Tree) Ancestors(id int64) []int64 {
	lineage := t.Lineage(id)
	if len(lineage) <= 1 {
		return nil
	}
	ids := make([]int64, 0, len(lineage)-1)
	for _, c := range lineage[1:] {
		ids = append(ids, c.ID)
	}
	return ids
}

// Root returns the top-level ancestor of id (id itself for a root).
func (t *Tree) Root(id int64) (model.ConceptCategory, bool) {
	lineage := t.Lineage(id)
	if len(lineage) == 0 {
		return model.ConceptCategory{}, false
	}
	return lineage[len(lineage)-1], true
}

// PathLabel renders "Root > Child > Leaf" using at most the three innermost
// levels.
func (t *Tree) PathLabel(id int64) string {
	lineage := t.Lineage(id)
	if len(lineage) > maxPathDepth {
		lineage = lineage[:maxPathDepth]
	}
	names := make([]string, len(lineage))
	for i, c := range lineage {
		names[len(lineage)-1-i] = c.Name
	}
	return strings.Join(names, PathSeparator)
}

// Subtree returns the given ids plus all of their descendants.
func (t *Tree) Subtree(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	stack := append([]int64(nil), ids...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = struct{}{}
		stack = append(stack, t.children[id]...)
	}
	return out
}

// IsWithin reports whether id equals ancestor or descends from it.
func (t *Tree) IsWithin(id, ancestor int64) bool {
	for _, c := range t.Lineage(id) {
		if c.ID == ancestor {
			return true
		}
	}
	return false
}

// HasLineageNamed reports whether id or any ancestor has the given name
// (case-insensitive).
func (t *Tree) HasLineageNamed(id int64, name string) bool {
	for _, c := range t.Lineage(id) {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
