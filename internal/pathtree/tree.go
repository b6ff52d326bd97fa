package pathtree

import (
	"fmt"
	"sort"
	"strings"

	"tinykernel/internal/kconfig"
	"tinykernel/internal/kerr"
)

// node is one slot in the tree's node pool. Slot 0 is always the root.
type node struct {
	used        bool
	name        string
	parent      int
	firstChild  int
	nextSibling int
}

// Tree is a fixed-capacity (kconfig.PathTreeMaxNodes) in-memory directory
// tree: an index-linked node pool with alphabetically sorted sibling
// lists, the same shape as the original reference implementation's
// fs_dir_tree_t but addressed by Go slice index instead of raw pointers.
type Tree struct {
	nodes    []node
	cwdIndex int
}

// NewTree returns a tree containing only the root directory, with cwd set
// to root.
func NewTree() *Tree {
	t := &Tree{nodes: make([]node, 0, kconfig.PathTreeMaxNodes)}
	t.nodes = append(t.nodes, node{used: true, parent: -1, firstChild: -1, nextSibling: -1})
	return t
}

func (t *Tree) findChild(parentIdx int, name string) int {
	cur := t.nodes[parentIdx].firstChild
	for cur >= 0 {
		if t.nodes[cur].used && t.nodes[cur].name == name {
			return cur
		}
		cur = t.nodes[cur].nextSibling
	}
	return -1
}

func (t *Tree) allocNode(name string, parent int) (int, error) {
	if len(name) == 0 || len(name) > kconfig.PathTreeMaxNameLen {
		return -1, fmt.Errorf("pathtree: %w: bad component name %q", kerr.ErrArgument, name)
	}
	if len(t.nodes) >= kconfig.PathTreeMaxNodes {
		return -1, fmt.Errorf("pathtree: %w: node pool exhausted", kerr.ErrNoSpace)
	}
	idx := len(t.nodes)
	t.nodes = append(t.nodes, node{used: true, name: name, parent: parent, firstChild: -1, nextSibling: -1})
	return idx, nil
}

// insertChildSorted links childIdx into parentIdx's sibling list in
// lexicographic order by name.
func (t *Tree) insertChildSorted(parentIdx, childIdx int) {
	prev := -1
	cur := t.nodes[parentIdx].firstChild
	for cur >= 0 && t.nodes[cur].name < t.nodes[childIdx].name {
		prev = cur
		cur = t.nodes[cur].nextSibling
	}
	if prev < 0 {
		t.nodes[childIdx].nextSibling = t.nodes[parentIdx].firstChild
		t.nodes[parentIdx].firstChild = childIdx
	} else {
		t.nodes[childIdx].nextSibling = t.nodes[prev].nextSibling
		t.nodes[prev].nextSibling = childIdx
	}
}

// pathFromIndex walks parent links from idx back to the root and joins
// the names into an absolute path.
func (t *Tree) pathFromIndex(idx int) (string, error) {
	if idx < 0 || idx >= len(t.nodes) || !t.nodes[idx].used {
		return "", fmt.Errorf("pathtree: %w: invalid node index %d", kerr.ErrArgument, idx)
	}
	if idx == 0 {
		return "/", nil
	}

	var names []string
	cur := idx
	for cur > 0 {
		names = append(names, t.nodes[cur].name)
		cur = t.nodes[cur].parent
		if cur < 0 || cur >= len(t.nodes) || !t.nodes[cur].used {
			return "", fmt.Errorf("pathtree: %w: broken parent chain at node %d", kerr.ErrState, idx)
		}
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return "/" + strings.Join(names, "/"), nil
}

// resolvePath resolves path against the tree's current working directory.
func (t *Tree) resolvePath(path string) (string, error) {
	cwd, err := t.pathFromIndex(t.cwdIndex)
	if err != nil {
		return "", err
	}
	return Resolve(cwd, path)
}

// lookupAbsolute finds the node index for an already-normalized absolute
// path, failing on the first missing component.
func (t *Tree) lookupAbsolute(absPath string) (int, error) {
	if absPath == "" || absPath[0] != '/' {
		return -1, fmt.Errorf("pathtree: %w: %q is not absolute", kerr.ErrArgument, absPath)
	}
	if absPath == "/" {
		return 0, nil
	}

	cur := 0
	for _, name := range strings.Split(strings.TrimPrefix(absPath, "/"), "/") {
		child := t.findChild(cur, name)
		if child < 0 {
			return -1, fmt.Errorf("pathtree: %w: %q", kerr.ErrNotFound, absPath)
		}
		cur = child
	}
	return cur, nil
}

// Walk resolves path against cwd and looks it up in the tree, failing on
// the first missing component.
func (t *Tree) Walk(path string) (int, error) {
	abs, err := t.resolvePath(path)
	if err != nil {
		return -1, err
	}
	return t.lookupAbsolute(abs)
}

func (t *Tree) mkdir(path string, createParents bool) error {
	abs, err := t.resolvePath(path)
	if err != nil {
		return err
	}
	if abs == "/" {
		return fmt.Errorf("pathtree: %w: cannot mkdir root", kerr.ErrArgument)
	}

	cur := 0
	createdAny := false
	components := strings.Split(strings.TrimPrefix(abs, "/"), "/")
	for i, name := range components {
		atLast := i == len(components)-1

		if child := t.findChild(cur, name); child >= 0 {
			if atLast && !createParents {
				return fmt.Errorf("pathtree: %w: %q already exists", kerr.ErrState, abs)
			}
			cur = child
			continue
		}

		if !createParents && !atLast {
			return fmt.Errorf("pathtree: %w: missing intermediate directory %q", kerr.ErrNotFound, name)
		}

		newIdx, err := t.allocNode(name, cur)
		if err != nil {
			return err
		}
		t.insertChildSorted(cur, newIdx)
		cur = newIdx
		createdAny = true
	}

	if !createParents && !createdAny {
		return fmt.Errorf("pathtree: %w: %q already exists", kerr.ErrState, abs)
	}
	return nil
}

// Mkdir creates path, failing if any intermediate component is missing or
// the final component already exists.
func (t *Tree) Mkdir(path string) error {
	return t.mkdir(path, false)
}

// MkdirP creates every missing component of path, succeeding if the path
// already exists in full.
func (t *Tree) MkdirP(path string) error {
	return t.mkdir(path, true)
}

// Readdir lists the names of path's children in sibling (sorted) order.
func (t *Tree) Readdir(path string) ([]string, error) {
	dirIdx, err := t.Walk(path)
	if err != nil {
		return nil, err
	}

	var names []string
	cur := t.nodes[dirIdx].firstChild
	for cur >= 0 {
		names = append(names, t.nodes[cur].name)
		cur = t.nodes[cur].nextSibling
	}
	sort.Strings(names)
	return names, nil
}

// Cd walks path and, on success, updates the tree's cwd. On failure cwd
// is left unchanged.
func (t *Tree) Cd(path string) error {
	idx, err := t.Walk(path)
	if err != nil {
		return err
	}
	t.cwdIndex = idx
	return nil
}

// Pwd returns the absolute path of the current working directory.
func (t *Tree) Pwd() (string, error) {
	return t.pathFromIndex(t.cwdIndex)
}

// Seed ensures path exists as a node (creating any missing directories
// along the way, including the final component). It is MkdirP under
// another name: pathtree nodes carry no file/directory distinction and
// hold no content, so a leaf created this way stores no file data.
func (t *Tree) Seed(path string) error {
	return t.MkdirP(path)
}
