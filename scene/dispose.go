package scene

import (
	"errors"
	"fmt"
)

// DisposeGraph disposes every mesh, material, material map and point cloud
// reachable from root. Each object is released in isolation: a failing or
// panicking disposer is recorded and the traversal continues.
func DisposeGraph(root *Node) error {
	if root == nil {
		return nil
	}
	var errs []error
	seen := make(map[Disposable]bool)
	release := func(kind, name string, d Disposable) {
		if d == nil || seen[d] {
			return
		}
		seen[d] = true
		if err := disposeSafely(d); err != nil {
			errs = append(errs, fmt.Errorf("dispose %s %q: %w", kind, name, err))
		}
	}

	root.Traverse(func(n *Node) {
		if n.Mesh != nil {
			release("mesh", n.Mesh.Name, n.Mesh)
		}
		for _, m := range n.Materials {
			if m == nil {
				continue
			}
			if m.Map != nil {
				release("texture", m.Map.Name, m.Map)
			}
			release("material", m.Name, m)
		}
		if n.Points != nil {
			release("points", n.Points.Name, n.Points)
		}
	})
	return errors.Join(errs...)
}

func disposeSafely(d Disposable) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return d.Dispose()
}
