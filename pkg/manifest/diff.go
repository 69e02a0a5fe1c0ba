// pkg/manifest/diff.go

package manifest

import "sort"

// ChangeKind describes how one dependency entry moved between revisions.
type ChangeKind string

const (
	Added   ChangeKind = "Added"
	Removed ChangeKind = "Removed"
	Updated ChangeKind = "Updated"
)

// DependencyChange is one entry of a structural dependency diff.
type DependencyChange struct {
	Name string
	Kind ChangeKind
	From string
	To   string
	Dev  bool
}

// Diff compares the dependency and devDependency maps of two manifests as
// key/value sets. Runtime dependencies come first, each group sorted by name.
func Diff(previous, current *Manifest) []DependencyChange {
	changes := diffMaps(previous.Dependencies, current.Dependencies, false)
	return append(changes, diffMaps(previous.DevDependencies, current.DevDependencies, true)...)
}

func diffMaps(prev, cur map[string]string, dev bool) []DependencyChange {
	var changes []DependencyChange
	for name, to := range cur {
		from, ok := prev[name]
		switch {
		case !ok:
			changes = append(changes, DependencyChange{Name: name, Kind: Added, To: to, Dev: dev})
		case from != to:
			changes = append(changes, DependencyChange{Name: name, Kind: Updated, From: from, To: to, Dev: dev})
		}
	}
	for name, from := range prev {
		if _, ok := cur[name]; !ok {
			changes = append(changes, DependencyChange{Name: name, Kind: Removed, From: from, Dev: dev})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}
