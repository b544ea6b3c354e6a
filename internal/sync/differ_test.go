package sync

import (
	"slices"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestDiffSpecies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		local       []string
		remote      []string
		wantAdded   []string
		wantDeleted []string
	}{
		{
			name: "both empty",
		},
		{
			name:      "empty local adds everything",
			remote:    []string{"Pezoporus occidentalis", "Falco hypoleucos"},
			wantAdded: []string{"Falco hypoleucos", "Pezoporus occidentalis"},
		},
		{
			name:        "empty remote deletes everything",
			local:       []string{"Falco hypoleucos"},
			wantDeleted: []string{"Falco hypoleucos"},
		},
		{
			name:        "survivors are untouched",
			local:       []string{"Falco hypoleucos", "Geophaps smithii", "Amytornis woodwardi"},
			remote:      []string{"Geophaps smithii", "Falco hypoleucos", "Pezoporus occidentalis"},
			wantAdded:   []string{"Pezoporus occidentalis"},
			wantDeleted: []string{"Amytornis woodwardi"},
		},
		{
			name:   "identical catalogs",
			local:  []string{"Falco hypoleucos", "Geophaps smithii"},
			remote: []string{"Geophaps smithii", "Falco hypoleucos"},
		},
		{
			name:        "duplicates collapse",
			local:       []string{"Amytornis woodwardi", "Amytornis woodwardi"},
			remote:      []string{"Falco hypoleucos", "Falco hypoleucos"},
			wantAdded:   []string{"Falco hypoleucos"},
			wantDeleted: []string{"Amytornis woodwardi"},
		},
		{
			name:        "names are case sensitive",
			local:       []string{"falco hypoleucos"},
			remote:      []string{"Falco hypoleucos"},
			wantAdded:   []string{"Falco hypoleucos"},
			wantDeleted: []string{"falco hypoleucos"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			added, deleted := DiffSpecies(tt.local, tt.remote)
			assert.Equal(t, tt.wantAdded, added)
			assert.Equal(t, tt.wantDeleted, deleted)
		})
	}
}

func TestDiffSpecies_Properties(t *testing.T) {
	t.Parallel()

	contains := func(set []string, name string) bool {
		return slices.Contains(set, name)
	}

	property := func(local, remote []string) bool {
		added, deleted := DiffSpecies(local, remote)

		if !slices.IsSorted(added) || !slices.IsSorted(deleted) {
			return false
		}

		// added = R \ L
		for _, name := range added {
			if !contains(remote, name) || contains(local, name) {
				return false
			}
		}
		for _, name := range remote {
			if !contains(local, name) && !contains(added, name) {
				return false
			}
		}

		// deleted = L \ R
		for _, name := range deleted {
			if !contains(local, name) || contains(remote, name) {
				return false
			}
		}
		for _, name := range local {
			if !contains(remote, name) && !contains(deleted, name) {
				return false
			}
		}

		// survivors appear in neither, and the sides are disjoint
		for _, name := range local {
			if contains(remote, name) && (contains(added, name) || contains(deleted, name)) {
				return false
			}
		}
		for _, name := range added {
			if contains(deleted, name) {
				return false
			}
		}
		return true
	}

	assert.NoError(t, quick.Check(property, &quick.Config{MaxCount: 500}))
}

func TestDiffSpecies_SmallAlphabet(t *testing.T) {
	t.Parallel()

	// A tiny alphabet makes overlaps between the two sides likely
	alphabet := []string{"a", "b", "c", "d"}
	for mask := range 1 << (2 * len(alphabet)) {
		var local, remote []string
		for i, name := range alphabet {
			if mask&(1<<i) != 0 {
				local = append(local, name)
			}
			if mask&(1<<(i+len(alphabet))) != 0 {
				remote = append(remote, name)
			}
		}

		added, deleted := DiffSpecies(local, remote)
		for _, name := range alphabet {
			inL, inR := slices.Contains(local, name), slices.Contains(remote, name)
			assert.Equal(t, inR && !inL, slices.Contains(added, name), "mask %b name %s", mask, name)
			assert.Equal(t, inL && !inR, slices.Contains(deleted, name), "mask %b name %s", mask, name)
		}
	}
}
