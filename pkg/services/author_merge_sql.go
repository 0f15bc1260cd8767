package services

import (
	"fmt"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	"github.com/ekaya-inc/author-merge/pkg/config"
	"github.com/ekaya-inc/author-merge/pkg/models"
)

// mergeSQL builds every statement of a pass from validated schema names.
// Identifiers are quoted once here; values always travel as '?' parameters.
type mergeSQL struct {
	dialect datasource.Dialect
	schema  config.SchemaConfig

	authors    string
	authorID   string
	authorName string
	links      string
	linkAuthor string
	linkWork   string
	key        string
	keyIndex   string

	mergeMap      string
	mergeMapIndex string
	mergeDrop     string

	allowEmptyKey bool
}

func newMergeSQL(dialect datasource.Dialect, schema config.SchemaConfig, allowEmptyKey bool) *mergeSQL {
	quote := dialect.QuoteIdentifier
	return &mergeSQL{
		dialect:       dialect,
		schema:        schema,
		authors:       quote(schema.AuthorsTable),
		authorID:      quote(schema.AuthorIDColumn),
		authorName:    quote(schema.AuthorNameColumn),
		links:         quote(schema.LinksTable),
		linkAuthor:    quote(schema.LinkAuthorColumn),
		linkWork:      quote(schema.LinkWorkColumn),
		key:           quote(schema.KeyColumn),
		keyIndex:      quote(schema.KeyIndex),
		mergeMap:      quote(schema.MergeMapTable()),
		mergeMapIndex: quote(schema.MergeMapTable() + "_idx"),
		mergeDrop:     quote(schema.MergeDropTable()),
		allowEmptyKey: allowEmptyKey,
	}
}

// keyFilter limits alias to rows that take part in grouping. Empty keys come
// from blank or punctuation-only names and are skipped unless allowed.
func (q *mergeSQL) keyFilter(alias string) string {
	col := alias + "." + q.key
	if q.allowEmptyKey {
		return col + " IS NOT NULL"
	}
	return col + " IS NOT NULL AND " + col + " <> ''"
}

func (q *mergeSQL) addKeyColumn() string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s", q.authors, q.key, q.dialect.KeyColumnType())
}

func (q *mergeSQL) dropKeyColumn() string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", q.authors, q.key)
}

func (q *mergeSQL) createKeyIndex() string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (%s)", q.keyIndex, q.authors, q.key)
}

func (q *mergeSQL) dropKeyIndex() string {
	return q.dialect.DropIndexStatement(q.schema.AuthorsTable, q.schema.KeyIndex)
}

func (q *mergeSQL) selectAuthorsForKeys(mode models.PopulateMode) string {
	query := fmt.Sprintf("SELECT %s, COALESCE(%s, '') FROM %s", q.authorID, q.authorName, q.authors)
	if mode == models.PopulateMissing {
		query += fmt.Sprintf(" WHERE %s IS NULL", q.key)
	}
	return query + fmt.Sprintf(" ORDER BY %s", q.authorID)
}

func (q *mergeSQL) updateKey() string {
	return fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?", q.authors, q.key, q.authorID)
}

// dependencyCounts yields (author_ref, dep_count) for every referenced author.
func (q *mergeSQL) dependencyCounts() string {
	return fmt.Sprintf("SELECT %s AS author_ref, COUNT(*) AS dep_count FROM %s GROUP BY %s",
		q.linkAuthor, q.links, q.linkAuthor)
}

func (q *mergeSQL) countDuplicateGroups() string {
	return fmt.Sprintf(`SELECT COUNT(*) FROM (
	SELECT s.%[1]s FROM %[2]s s WHERE %[3]s GROUP BY s.%[1]s HAVING COUNT(*) > 1
) g`, q.key, q.authors, q.keyFilter("s"))
}

// selectGroupMembers lists every member of every duplicate group with its
// dependency count, ordered so each group is contiguous.
func (q *mergeSQL) selectGroupMembers() string {
	return fmt.Sprintf(`SELECT a.%[1]s, a.%[2]s, COALESCE(a.%[3]s, ''), COALESCE(c.dep_count, 0)
FROM %[4]s a
JOIN (
	SELECT s.%[1]s AS group_key FROM %[4]s s WHERE %[5]s GROUP BY s.%[1]s HAVING COUNT(*) > 1
) g ON g.group_key = a.%[1]s
LEFT JOIN (%[6]s) c ON c.author_ref = a.%[2]s
ORDER BY a.%[1]s, a.%[2]s`,
		q.key, q.authorID, q.authorName, q.authors, q.keyFilter("s"), q.dependencyCounts())
}

// mergeMapSelect ranks each group by dependency count, then id, and keeps
// every row that is not its group's first. No parameters: it runs inside DDL.
func (q *mergeSQL) mergeMapSelect() string {
	return fmt.Sprintf(`SELECT ranked.id AS duplicate_id, ranked.canonical_id AS canonical_id FROM (
	SELECT a.%[1]s AS id,
		FIRST_VALUE(a.%[1]s) OVER (
			PARTITION BY a.%[2]s ORDER BY COALESCE(c.dep_count, 0) DESC, a.%[1]s ASC
		) AS canonical_id
	FROM %[3]s a
	LEFT JOIN (%[4]s) c ON c.author_ref = a.%[1]s
	WHERE %[5]s
) ranked
WHERE ranked.id <> ranked.canonical_id`,
		q.authorID, q.key, q.authors, q.dependencyCounts(), q.keyFilter("a"))
}

func (q *mergeSQL) createMergeMap() string {
	return q.dialect.CreateTableAsStatement(q.schema.MergeMapTable(), []string{"duplicate_id"}, q.mergeMapSelect())
}

func (q *mergeSQL) indexMergeMap() string {
	return fmt.Sprintf("CREATE INDEX %s ON %s (duplicate_id)", q.mergeMapIndex, q.mergeMap)
}

func (q *mergeSQL) countMergeMap() string {
	return fmt.Sprintf("SELECT COUNT(*), COUNT(DISTINCT canonical_id) FROM %s", q.mergeMap)
}

// mergeDropSelect finds dependency rows of duplicates that would collide once
// rewritten: the canonical already links the same work, or a lower-id
// duplicate of the same group does.
func (q *mergeSQL) mergeDropSelect() string {
	return fmt.Sprintf(`SELECT DISTINCT d.%[1]s AS author_ref, d.%[2]s AS work_ref
FROM %[3]s d
JOIN %[4]s m ON m.duplicate_id = d.%[1]s
WHERE EXISTS (
	SELECT 1 FROM %[3]s k WHERE k.%[2]s = d.%[2]s AND k.%[1]s = m.canonical_id
) OR EXISTS (
	SELECT 1 FROM %[3]s k
	JOIN %[4]s m2 ON m2.duplicate_id = k.%[1]s
	WHERE k.%[2]s = d.%[2]s AND m2.canonical_id = m.canonical_id AND k.%[1]s < d.%[1]s
)`, q.linkAuthor, q.linkWork, q.links, q.mergeMap)
}

func (q *mergeSQL) createMergeDrop() string {
	return q.dialect.CreateTableAsStatement(q.schema.MergeDropTable(), []string{"author_ref", "work_ref"}, q.mergeDropSelect())
}

func (q *mergeSQL) deleteCollidingLinks() string {
	return fmt.Sprintf(`DELETE FROM %[1]s WHERE EXISTS (
	SELECT 1 FROM %[2]s x WHERE x.author_ref = %[1]s.%[3]s AND x.work_ref = %[1]s.%[4]s
)`, q.links, q.mergeDrop, q.linkAuthor, q.linkWork)
}

// rewriteLinks sets each reference to its canonical id, keyed by the old id,
// so re-running it after completion changes nothing.
func (q *mergeSQL) rewriteLinks() string {
	return fmt.Sprintf(`UPDATE %[1]s SET %[2]s = (
	SELECT m.canonical_id FROM %[3]s m WHERE m.duplicate_id = %[1]s.%[2]s
) WHERE %[2]s IN (SELECT duplicate_id FROM %[3]s)`, q.links, q.linkAuthor, q.mergeMap)
}

func (q *mergeSQL) deleteDuplicateAuthors() string {
	return fmt.Sprintf("DELETE FROM %s WHERE %s IN (SELECT duplicate_id FROM %s)",
		q.authors, q.authorID, q.mergeMap)
}

func (q *mergeSQL) dropTable(quoted string) string {
	return "DROP TABLE IF EXISTS " + quoted
}
