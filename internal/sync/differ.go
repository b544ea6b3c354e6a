package sync

import "slices"

// DiffSpecies compares the local and remote catalogs by scientific name.
// added holds remote names missing locally, deleted holds local names missing
// remotely. Both are sorted and free of duplicates; names present on both
// sides appear in neither.
func DiffSpecies(local, remote []string) (added, deleted []string) {
	localSet := toSet(local)
	remoteSet := toSet(remote)

	for name := range remoteSet {
		if _, ok := localSet[name]; !ok {
			added = append(added, name)
		}
	}
	for name := range localSet {
		if _, ok := remoteSet[name]; !ok {
			deleted = append(deleted, name)
		}
	}

	slices.Sort(added)
	slices.Sort(deleted)
	return added, deleted
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
