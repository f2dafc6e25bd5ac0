package energy

import (
	"iter"
	"slices"

	"github.com/breakerview/breakerview/pkg/types"
)

// Leaves returns the groups without sub_groups reachable from groups in
// depth-first, left-to-right order. Internal groups are never yielded, even
// when their sub_groups are empty. The yielded pointers refer to the nodes of
// groups, which are not modified. Ranging over the sequence again walks the
// tree again.
func Leaves(groups []types.Group) iter.Seq[*types.Group] {
	return func(yield func(*types.Group) bool) {
		// stack of slices still to walk, each consumed from the front
		stack := [][]types.Group{groups}
		for len(stack) > 0 {
			top := len(stack) - 1
			if len(stack[top]) == 0 {
				stack = stack[:top]
				continue
			}
			g := &stack[top][0]
			stack[top] = stack[top][1:]

			if !g.IsLeaf() {
				stack = append(stack, g.SubGroups)
				continue
			}
			if !yield(g) {
				return
			}
		}
	}
}

// Flatten is Leaves collected into a slice.
func Flatten(groups []types.Group) []*types.Group {
	leaves := slices.Collect(Leaves(groups))
	if leaves == nil {
		return []*types.Group{}
	}
	return leaves
}
