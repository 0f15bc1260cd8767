package services

import (
	"context"
	"fmt"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	"github.com/ekaya-inc/author-merge/pkg/models"
)

func (s *authorMergeService) CountDuplicateGroups(ctx context.Context) (int64, error) {
	n, err := datasource.QueryInt64(ctx, s.reader, s.sql.countDuplicateGroups())
	if err != nil {
		return 0, fmt.Errorf("count duplicate groups: %w", err)
	}
	return n, nil
}

// FindDuplicateGroups holds at most one group in memory at a time.
func (s *authorMergeService) FindDuplicateGroups(ctx context.Context, fn func(models.DuplicateGroup) error) error {
	rows, err := s.reader.Query(ctx, s.sql.selectGroupMembers())
	if err != nil {
		return fmt.Errorf("query duplicate groups: %w", err)
	}
	defer rows.Close()

	var current models.DuplicateGroup
	emit := func() error {
		if len(current.Members) < 2 {
			return nil
		}
		canonical, _ := SelectCanonical(current.Members)
		current.CanonicalID = canonical
		return fn(current)
	}

	for rows.Next() {
		var key string
		var m models.GroupMember
		if err := rows.Scan(&key, &m.ID, &m.Name, &m.DependencyCount); err != nil {
			return fmt.Errorf("scan group member: %w", err)
		}

		if len(current.Members) > 0 && key != current.Key {
			if err := emit(); err != nil {
				return err
			}
			current = models.DuplicateGroup{}
		}
		current.Key = key
		current.Members = append(current.Members, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query duplicate groups: %w", err)
	}

	return emit()
}

// SelectCanonical picks the member that survives a merge: the one with the
// most dependencies, the smallest id on a tie. ok is false for an empty group.
func SelectCanonical(members []models.GroupMember) (id int64, ok bool) {
	if len(members) == 0 {
		return 0, false
	}

	best := members[0]
	for _, m := range members[1:] {
		if m.DependencyCount > best.DependencyCount ||
			(m.DependencyCount == best.DependencyCount && m.ID < best.ID) {
			best = m
		}
	}
	return best.ID, true
}
