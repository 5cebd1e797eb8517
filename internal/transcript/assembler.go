package transcript

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/ES-COCO/es-coco/internal/db"
	apperrors "github.com/ES-COCO/es-coco/internal/errors"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Source is the read-only query surface the assembler needs.
type Source interface {
	DataSources(ctx context.Context, ids []int64) ([]db.DataSourceRow, error)
	Segments(ctx context.Context, ids []int64, order db.SegmentOrder) ([]db.SegmentRow, error)
	WordsForSegments(ctx context.Context, segmentIDs []int64) ([]db.WordRow, error)
	Words(ctx context.Context, ids []int64) ([]db.WordRow, error)
	Annotations(ctx context.Context, wordIDs []int64) ([]db.AnnotationRow, error)
	SegmentIDsForDataSource(ctx context.Context, dataSourceID int64) ([]int64, error)
	SwitchSegmentIDs(ctx context.Context) ([]int64, error)
}

// Assembler turns flat rows into segment → word → annotation trees with one
// query per level. Assembled segments are cached for the life of the
// process since the database never changes.
type Assembler struct {
	src      Source
	log      *zap.Logger
	segments *cache.Cache
}

// NewAssembler creates an Assembler reading from src.
func NewAssembler(src Source, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{
		src:      src,
		log:      log,
		segments: cache.New(cache.NoExpiration, 0),
	}
}

// Segments returns the segments with the given ids, words and annotations
// populated, in the requested order. Ids without a row are skipped.
func (a *Assembler) Segments(ctx context.Context, ids []int64, order db.SegmentOrder) ([]Segment, error) {
	out := make([]Segment, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	seen := make(map[int64]bool, len(ids))
	var misses []int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if s, ok := a.segments.Get(cacheKey(id)); ok {
			out = append(out, s.(Segment))
			continue
		}
		misses = append(misses, id)
	}

	fetched, err := a.fetchSegments(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, s := range fetched {
		a.segments.Set(cacheKey(s.ID), s, cache.NoExpiration)
	}

	out = append(out, fetched...)
	sortSegments(out, order)
	return out, nil
}

// Segment returns a single assembled segment.
func (a *Assembler) Segment(ctx context.Context, id int64) (Segment, error) {
	segs, err := a.Segments(ctx, []int64{id}, db.OrderByStart)
	if err != nil {
		return Segment{}, err
	}
	if len(segs) == 0 {
		return Segment{}, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("segment %d not found", id))
	}
	return segs[0], nil
}

func (a *Assembler) fetchSegments(ctx context.Context, ids []int64) ([]Segment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := a.src.Segments(ctx, ids, db.OrderByStart)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "load segments")
	}
	segments := make([]Segment, 0, len(rows))
	segmentIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		if r.DataSourceID.Valid && !r.SourceFound {
			a.log.Warn("dropping orphaned segment",
				zap.Int64("segment_id", r.ID),
				zap.Int64("data_source_id", r.DataSourceID.Int64))
			continue
		}
		s, err := toSegment(r)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidRow, "load segments")
		}
		segments = append(segments, s)
		segmentIDs = append(segmentIDs, s.ID)
	}

	wordRows, err := a.src.WordsForSegments(ctx, segmentIDs)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "load words")
	}
	words, err := a.annotate(ctx, wordRows)
	if err != nil {
		return nil, err
	}

	a.log.Debug("assembled segments",
		zap.Int("requested", len(ids)),
		zap.Int("segments", len(segments)),
		zap.Int("words", len(words)))
	return attachWords(a.log, segments, words), nil
}

// Words returns the words with the given ids, annotations populated, in
// (segment, index) order. Ids without a row are skipped.
func (a *Assembler) Words(ctx context.Context, ids []int64) ([]Word, error) {
	if len(ids) == 0 {
		return []Word{}, nil
	}
	rows, err := a.src.Words(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "load words")
	}
	return a.annotate(ctx, rows)
}

// annotate validates word rows and attaches their annotations.
func (a *Assembler) annotate(ctx context.Context, rows []db.WordRow) ([]Word, error) {
	words := make([]Word, 0, len(rows))
	wordIDs := make([]int64, 0, len(rows))
	for _, r := range rows {
		w, err := toWord(r)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidRow, "load words")
		}
		words = append(words, w)
		wordIDs = append(wordIDs, w.ID)
	}
	if len(words) == 0 {
		return words, nil
	}

	annRows, err := a.src.Annotations(ctx, wordIDs)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "load annotations")
	}
	annotations := make([]Annotation, 0, len(annRows))
	for _, r := range annRows {
		ann, err := toAnnotation(r)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidRow, "load annotations")
		}
		annotations = append(annotations, ann)
	}
	return attachAnnotations(a.log, words, annotations), nil
}

// SwitchSegments returns every segment containing a code-switch, ordered by
// data source name then start time.
func (a *Assembler) SwitchSegments(ctx context.Context) ([]Segment, error) {
	ids, err := a.src.SwitchSegmentIDs(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "load switch segments")
	}
	return a.Segments(ctx, ids, db.OrderBySourceThenStart)
}

// DataSourceSegments returns all segments of one data source ordered by
// start time.
func (a *Assembler) DataSourceSegments(ctx context.Context, dataSourceID int64) ([]Segment, error) {
	ids, err := a.src.SegmentIDsForDataSource(ctx, dataSourceID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "load data source segments")
	}
	return a.Segments(ctx, ids, db.OrderByStart)
}

// DataSources returns the data sources with the given ids ordered by name.
func (a *Assembler) DataSources(ctx context.Context, ids []int64) ([]DataSource, error) {
	out := make([]DataSource, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := a.src.DataSources(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "load data sources")
	}
	for _, r := range rows {
		d, err := toDataSource(r)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidRow, "load data sources")
		}
		out = append(out, d)
	}
	return out, nil
}

// DataSource returns a single data source.
func (a *Assembler) DataSource(ctx context.Context, id int64) (DataSource, error) {
	sources, err := a.DataSources(ctx, []int64{id})
	if err != nil {
		return DataSource{}, err
	}
	if len(sources) == 0 {
		return DataSource{}, apperrors.New(apperrors.CodeNotFound, fmt.Sprintf("data source %d not found", id))
	}
	return sources[0], nil
}

func cacheKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func sortSegments(segments []Segment, order db.SegmentOrder) {
	slices.SortStableFunc(segments, func(a, b Segment) int {
		if order == db.OrderBySourceThenStart {
			if c := cmp.Compare(a.SourceName, b.SourceName); c != 0 {
				return c
			}
		}
		return cmp.Or(cmp.Compare(a.StartMS, b.StartMS), cmp.Compare(a.ID, b.ID))
	})
}
