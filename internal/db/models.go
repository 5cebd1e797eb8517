// Package db provides read-only SQLite access to the ES-COCO transcript database.
package db

import "database/sql"

// DataSourceRow is one row of DataSources.
type DataSourceRow struct {
	ID      int64
	Name    sql.NullString
	Creator sql.NullString
	URL     sql.NullString
}

// SegmentRow is one row of Segments joined with its data source name.
type SegmentRow struct {
	ID           int64
	DataSourceID sql.NullInt64
	SourceFound  bool // false when the data source row is missing
	SourceName   sql.NullString
	StartMS      sql.NullInt64
	EndMS        sql.NullInt64
}

// WordRow is one row of Words.
type WordRow struct {
	ID          int64
	SegmentID   sql.NullInt64
	WordIndex   sql.NullInt64
	SurfaceForm sql.NullString
}

// AnnotationRow is one row of WordAnnotations joined with its type name.
type AnnotationRow struct {
	ID     int64
	WordID sql.NullInt64
	Type   sql.NullString
	Value  sql.NullString
}

// SegmentOrder selects how segment rows are sorted.
type SegmentOrder int

const (
	// OrderBySourceThenStart sorts by data source name, then start time.
	OrderBySourceThenStart SegmentOrder = iota
	// OrderByStart sorts by start time alone.
	OrderByStart
)

func (o SegmentOrder) String() string {
	switch o {
	case OrderByStart:
		return "start"
	default:
		return "source"
	}
}

// ParseSegmentOrder maps "source" and "start" to a SegmentOrder.
func ParseSegmentOrder(s string) (SegmentOrder, bool) {
	switch s {
	case "", "source":
		return OrderBySourceThenStart, true
	case "start":
		return OrderByStart, true
	}
	return OrderBySourceThenStart, false
}
