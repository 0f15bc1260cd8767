package services

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/author-merge/pkg/adapters/datasource"
	sqliteadapter "github.com/ekaya-inc/author-merge/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/author-merge/pkg/config"
)

// testLibrary is a SQLite bibliographic store in a temp dir, opened through
// two handles the way a real pass opens it.
type testLibrary struct {
	reader  datasource.Handle
	writer  datasource.Handle
	dialect datasource.Dialect
	schema  config.SchemaConfig
}

func testSchema() config.SchemaConfig {
	return config.SchemaConfig{
		AuthorsTable:     "authors",
		AuthorIDColumn:   "id",
		AuthorNameColumn: "name",
		LinksTable:       "author_book",
		LinkAuthorColumn: "author_id",
		LinkWorkColumn:   "book_id",
		KeyColumn:        "normalized_name",
		KeyIndex:         "normalized_name_index",
	}
}

func newTestLibrary(t *testing.T) *testLibrary {
	t.Helper()
	ctx := context.Background()

	cfg := &sqliteadapter.Config{
		Path:        filepath.Join(t.TempDir(), "library.db"),
		BusyTimeout: sqliteadapter.DefaultBusyTimeout(),
	}
	writer, err := sqliteadapter.NewHandle(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })

	reader, err := sqliteadapter.NewHandle(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reader.Close() })

	lib := &testLibrary{
		reader:  reader,
		writer:  writer,
		dialect: sqliteadapter.Dialect{},
		schema:  testSchema(),
	}
	lib.exec(t, `CREATE TABLE authors (id INTEGER PRIMARY KEY, name TEXT)`)
	lib.exec(t, `CREATE TABLE author_book (
		author_id INTEGER NOT NULL,
		book_id INTEGER NOT NULL,
		PRIMARY KEY (author_id, book_id)
	)`)
	return lib
}

func (l *testLibrary) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := l.writer.Exec(context.Background(), query, args...)
	require.NoError(t, err)
}

// addAuthor inserts an author; a nil name is stored as NULL.
func (l *testLibrary) addAuthor(t *testing.T, id int64, name any, bookIDs ...int64) {
	t.Helper()
	l.exec(t, "INSERT INTO authors (id, name) VALUES (?, ?)", id, name)
	for _, b := range bookIDs {
		l.exec(t, "INSERT INTO author_book (author_id, book_id) VALUES (?, ?)", id, b)
	}
}

func (l *testLibrary) service(opts AuthorMergeOptions) AuthorMergeService {
	return NewAuthorMergeService(l.reader, l.writer, l.dialect, l.schema, opts, zap.NewNop())
}

func (l *testLibrary) count(t *testing.T, query string, args ...any) int64 {
	t.Helper()
	n, err := datasource.QueryInt64(context.Background(), l.reader, query, args...)
	require.NoError(t, err)
	return n
}

func (l *testLibrary) authorIDs(t *testing.T) []int64 {
	t.Helper()
	rows, err := l.reader.Query(context.Background(), "SELECT id FROM authors ORDER BY id")
	require.NoError(t, err)
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

// links returns every (author_id, book_id) pair, sorted.
func (l *testLibrary) links(t *testing.T) [][2]int64 {
	t.Helper()
	rows, err := l.reader.Query(context.Background(), "SELECT author_id, book_id FROM author_book")
	require.NoError(t, err)
	defer rows.Close()

	var out [][2]int64
	for rows.Next() {
		var a, b int64
		require.NoError(t, rows.Scan(&a, &b))
		out = append(out, [2]int64{a, b})
	}
	require.NoError(t, rows.Err())

	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

func (l *testLibrary) hasColumn(t *testing.T, column string) bool {
	t.Helper()
	return l.count(t, l.dialect.ColumnExistsQuery(), "authors", column) > 0
}

func (l *testLibrary) hasTable(t *testing.T, table string) bool {
	t.Helper()
	return l.count(t, l.dialect.TableExistsQuery(), table) > 0
}

func (l *testLibrary) keyOf(t *testing.T, id int64) *string {
	t.Helper()
	rows, err := l.reader.Query(context.Background(), "SELECT normalized_name FROM authors WHERE id = ?", id)
	require.NoError(t, err)
	defer rows.Close()

	require.True(t, rows.Next(), "author %d not found", id)
	var key *string
	require.NoError(t, rows.Scan(&key))
	return key
}
