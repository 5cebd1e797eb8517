package transcript

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/ES-COCO/es-coco/internal/db"
	"github.com/go-playground/validator/v10"
)

// ValidationError reports a row that does not match the expected schema.
type ValidationError struct {
	Entity string
	ID     int64
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %d: %s: %s", e.Entity, e.ID, e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report column names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("col")
	})
	return v
}

type dataSourceRecord struct {
	ID      int64 `col:"id" validate:"gt=0"`
	Name    string
	Creator string
	URL     string
}

type segmentRecord struct {
	ID           int64 `col:"id" validate:"gt=0"`
	DataSourceID int64 `col:"data_source_id" validate:"gt=0"`
	SourceName   string
	StartMS      int64 `col:"start_ms" validate:"gte=0"`
	EndMS        int64 `col:"end_ms" validate:"gtefield=StartMS"`
}

type wordRecord struct {
	ID          int64 `col:"id" validate:"gt=0"`
	SegmentID   int64 `col:"segment_id" validate:"gt=0"`
	Index       int64 `col:"word_index" validate:"gte=0"`
	SurfaceForm string
}

type annotationRecord struct {
	ID     int64  `col:"id" validate:"gt=0"`
	WordID int64  `col:"word_id" validate:"gt=0"`
	Type   string `col:"type" validate:"required"`
	Value  string
}

// nullCheck accumulates the first NULL found in a row.
type nullCheck struct {
	entity string
	id     int64
	err    *ValidationError
}

func (c *nullCheck) int(field string, v sql.NullInt64) int64 {
	if !v.Valid && c.err == nil {
		c.err = &ValidationError{Entity: c.entity, ID: c.id, Field: field, Reason: "is null"}
	}
	return v.Int64
}

func (c *nullCheck) str(field string, v sql.NullString) string {
	if !v.Valid && c.err == nil {
		c.err = &ValidationError{Entity: c.entity, ID: c.id, Field: field, Reason: "is null"}
	}
	return v.String
}

func check(entity string, id int64, record any) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		reason := "fails " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &ValidationError{Entity: entity, ID: id, Field: fe.Field(), Reason: reason}
	}
	return err
}

func toDataSource(r db.DataSourceRow) (DataSource, error) {
	c := nullCheck{entity: "data source", id: r.ID}
	rec := dataSourceRecord{
		ID:      r.ID,
		Name:    c.str("name", r.Name),
		Creator: c.str("creator", r.Creator),
		URL:     c.str("url", r.URL),
	}
	if c.err != nil {
		return DataSource{}, c.err
	}
	if err := check(c.entity, r.ID, rec); err != nil {
		return DataSource{}, err
	}
	return DataSource(rec), nil
}

func toSegment(r db.SegmentRow) (Segment, error) {
	c := nullCheck{entity: "segment", id: r.ID}
	rec := segmentRecord{
		ID:           r.ID,
		DataSourceID: c.int("data_source_id", r.DataSourceID),
		SourceName:   c.str("name", r.SourceName),
		StartMS:      c.int("start_ms", r.StartMS),
		EndMS:        c.int("end_ms", r.EndMS),
	}
	if c.err != nil {
		return Segment{}, c.err
	}
	if err := check(c.entity, r.ID, rec); err != nil {
		return Segment{}, err
	}
	return Segment{
		ID:           rec.ID,
		DataSourceID: rec.DataSourceID,
		SourceName:   rec.SourceName,
		StartMS:      rec.StartMS,
		EndMS:        rec.EndMS,
		Words:        []Word{},
	}, nil
}

func toWord(r db.WordRow) (Word, error) {
	c := nullCheck{entity: "word", id: r.ID}
	rec := wordRecord{
		ID:          r.ID,
		SegmentID:   c.int("segment_id", r.SegmentID),
		Index:       c.int("word_index", r.WordIndex),
		SurfaceForm: c.str("surface_form", r.SurfaceForm),
	}
	if c.err != nil {
		return Word{}, c.err
	}
	if err := check(c.entity, r.ID, rec); err != nil {
		return Word{}, err
	}
	return Word{
		ID:          rec.ID,
		SegmentID:   rec.SegmentID,
		Index:       rec.Index,
		SurfaceForm: rec.SurfaceForm,
		Annotations: []Annotation{},
	}, nil
}

func toAnnotation(r db.AnnotationRow) (Annotation, error) {
	c := nullCheck{entity: "annotation", id: r.ID}
	rec := annotationRecord{
		ID:     r.ID,
		WordID: c.int("word_id", r.WordID),
		Type:   c.str("type", r.Type),
		Value:  c.str("value", r.Value),
	}
	if c.err != nil {
		return Annotation{}, c.err
	}
	if err := check(c.entity, r.ID, rec); err != nil {
		return Annotation{}, err
	}
	return Annotation(rec), nil
}
