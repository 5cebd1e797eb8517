package db

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"os"
	"slices"
	"strings"

	_ "modernc.org/sqlite"
)

// maxParams keeps IN lists well below SQLite's host parameter limit.
const maxParams = 5000

// Store provides read-only access to the transcript database.
type Store struct {
	db *sql.DB
}

// Open opens the database file in read-only mode.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Placeholders returns n comma separated positional placeholders.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// DataSources returns the data sources with the given ids, ordered by name.
func (s *Store) DataSources(ctx context.Context, ids []int64) ([]DataSourceRow, error) {
	var out []DataSourceRow
	for _, chunk := range chunkIDs(ids) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, name, creator, url
			FROM DataSources
			WHERE id IN (`+Placeholders(len(chunk))+`)
		`, args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("query data sources: %w", err)
		}
		for rows.Next() {
			var d DataSourceRow
			if err := rows.Scan(&d.ID, &d.Name, &d.Creator, &d.URL); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan data source: %w", err)
			}
			out = append(out, d)
		}
		if err := closeRows(rows); err != nil {
			return nil, fmt.Errorf("query data sources: %w", err)
		}
	}
	slices.SortStableFunc(out, func(a, b DataSourceRow) int {
		return cmp.Or(cmp.Compare(a.Name.String, b.Name.String), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// Segments returns the segments with the given ids in the requested order.
// A segment whose data source row is missing is returned with SourceFound
// unset.
func (s *Store) Segments(ctx context.Context, ids []int64, order SegmentOrder) ([]SegmentRow, error) {
	var out []SegmentRow
	for _, chunk := range chunkIDs(ids) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT s.id, s.data_source_id, d.id IS NOT NULL, d.name, s.start_ms, s.end_ms
			FROM Segments AS s
			LEFT JOIN DataSources AS d ON s.data_source_id = d.id
			WHERE s.id IN (`+Placeholders(len(chunk))+`)
		`, args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("query segments: %w", err)
		}
		for rows.Next() {
			var r SegmentRow
			if err := rows.Scan(&r.ID, &r.DataSourceID, &r.SourceFound, &r.SourceName, &r.StartMS, &r.EndMS); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan segment: %w", err)
			}
			out = append(out, r)
		}
		if err := closeRows(rows); err != nil {
			return nil, fmt.Errorf("query segments: %w", err)
		}
	}
	slices.SortStableFunc(out, func(a, b SegmentRow) int {
		if order == OrderBySourceThenStart {
			if c := cmp.Compare(a.SourceName.String, b.SourceName.String); c != 0 {
				return c
			}
		}
		return cmp.Or(cmp.Compare(a.StartMS.Int64, b.StartMS.Int64), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// WordsForSegments returns every word of the given segments ordered by
// (segment_id, word_index).
func (s *Store) WordsForSegments(ctx context.Context, segmentIDs []int64) ([]WordRow, error) {
	return s.words(ctx, "segment_id", segmentIDs)
}

// Words returns the words with the given ids ordered by (segment_id, word_index).
func (s *Store) Words(ctx context.Context, ids []int64) ([]WordRow, error) {
	return s.words(ctx, "id", ids)
}

func (s *Store) words(ctx context.Context, column string, ids []int64) ([]WordRow, error) {
	var out []WordRow
	for _, chunk := range chunkIDs(ids) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, segment_id, word_index, surface_form
			FROM Words
			WHERE `+column+` IN (`+Placeholders(len(chunk))+`)
		`, args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("query words: %w", err)
		}
		for rows.Next() {
			var w WordRow
			if err := rows.Scan(&w.ID, &w.SegmentID, &w.WordIndex, &w.SurfaceForm); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan word: %w", err)
			}
			out = append(out, w)
		}
		if err := closeRows(rows); err != nil {
			return nil, fmt.Errorf("query words: %w", err)
		}
	}
	slices.SortStableFunc(out, func(a, b WordRow) int {
		return cmp.Or(
			cmp.Compare(a.SegmentID.Int64, b.SegmentID.Int64),
			cmp.Compare(a.WordIndex.Int64, b.WordIndex.Int64),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out, nil
}

// Annotations returns the annotations of the given words ordered by
// (word_id, id). An annotation with an unknown type id has a NULL Type.
func (s *Store) Annotations(ctx context.Context, wordIDs []int64) ([]AnnotationRow, error) {
	var out []AnnotationRow
	for _, chunk := range chunkIDs(wordIDs) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT a.id, a.word_id, t.name, a.value
			FROM WordAnnotations AS a
			LEFT JOIN AnnotationTypes AS t ON a.annotation_type_id = t.id
			WHERE a.word_id IN (`+Placeholders(len(chunk))+`)
		`, args(chunk)...)
		if err != nil {
			return nil, fmt.Errorf("query annotations: %w", err)
		}
		for rows.Next() {
			var a AnnotationRow
			if err := rows.Scan(&a.ID, &a.WordID, &a.Type, &a.Value); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan annotation: %w", err)
			}
			out = append(out, a)
		}
		if err := closeRows(rows); err != nil {
			return nil, fmt.Errorf("query annotations: %w", err)
		}
	}
	slices.SortStableFunc(out, func(a, b AnnotationRow) int {
		return cmp.Or(cmp.Compare(a.WordID.Int64, b.WordID.Int64), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// SegmentIDsForDataSource returns the ids of a data source's segments ordered
// by start time.
func (s *Store) SegmentIDsForDataSource(ctx context.Context, dataSourceID int64) ([]int64, error) {
	return s.ids(ctx, `
		SELECT id
		FROM Segments
		WHERE data_source_id = ?
		ORDER BY start_ms ASC, id ASC
	`, dataSourceID)
}

// SwitchSegmentIDs returns the ids of segments holding at least one word
// annotated with the "switch" type.
func (s *Store) SwitchSegmentIDs(ctx context.Context) ([]int64, error) {
	return s.ids(ctx, `
		SELECT DISTINCT s.id
		FROM WordAnnotations AS a
		JOIN Words AS w ON a.word_id = w.id
		JOIN Segments AS s ON w.segment_id = s.id
		WHERE a.annotation_type_id = (SELECT id FROM AnnotationTypes WHERE name = 'switch')
		ORDER BY s.id
	`)
}

func (s *Store) ids(ctx context.Context, query string, params ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}

// chunkIDs sorts and dedupes ids, then splits them into IN-list sized chunks.
func chunkIDs(ids []int64) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var chunks [][]int64
	for len(sorted) > maxParams {
		chunks = append(chunks, sorted[:maxParams])
		sorted = sorted[maxParams:]
	}
	return append(chunks, sorted)
}

func args(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// NewStore wraps an already open connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{db: conn}
}
