package models

import "time"

// Author is a person record as read from the authors table.
type Author struct {
	ID   int64
	Name string
}

// GroupMember is one author inside a duplicate group, with the number of
// dependency rows (authorship links) that reference it.
type GroupMember struct {
	ID              int64  `yaml:"id"`
	Name            string `yaml:"name"`
	DependencyCount int64  `yaml:"dependencies"`
}

// DuplicateGroup is the set of authors sharing one comparison key.
// Only groups with more than one member are ever produced.
type DuplicateGroup struct {
	Key         string        `yaml:"key"`
	CanonicalID int64         `yaml:"canonical_id"`
	Members     []GroupMember `yaml:"members"`
}

// DuplicateIDs returns the ids of every member other than the canonical one.
func (g *DuplicateGroup) DuplicateIDs() []int64 {
	ids := make([]int64, 0, len(g.Members))
	for _, m := range g.Members {
		if m.ID != g.CanonicalID {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// PopulateMode selects which rows get their comparison key (re)computed.
type PopulateMode string

const (
	// PopulateMissing only fills rows whose key is still NULL. Used to resume an
	// interrupted population phase.
	PopulateMissing PopulateMode = "missing"
	// PopulateAll recomputes the key of every row.
	PopulateAll PopulateMode = "all"
)

// MergeStats summarizes one pass.
type MergeStats struct {
	RunID                 string
	KeysComputed          int64
	DuplicateGroups       int64
	AuthorsDeleted        int64
	DependenciesRewritten int64
	DependenciesDropped   int64
	RemainingGroups       int64
	DryRun                bool
	StartedAt             time.Time
	FinishedAt            time.Time
}

// Duration returns how long the pass took.
func (s *MergeStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
