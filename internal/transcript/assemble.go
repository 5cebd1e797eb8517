package transcript

import "go.uber.org/zap"

// attachWords appends each word, in the given order, to the segment it
// belongs to. Words without a segment in the batch are logged and dropped.
func attachWords(log *zap.Logger, segments []Segment, words []Word) []Segment {
	byID := make(map[int64]int, len(segments))
	for i, s := range segments {
		byID[s.ID] = i
	}
	for _, w := range words {
		i, ok := byID[w.SegmentID]
		if !ok {
			log.Warn("dropping orphaned word",
				zap.Int64("word_id", w.ID),
				zap.Int64("segment_id", w.SegmentID))
			continue
		}
		segments[i].Words = append(segments[i].Words, w)
	}
	return segments
}

// attachAnnotations appends each annotation to the word it belongs to.
// Annotations without a word in the batch are logged and dropped.
func attachAnnotations(log *zap.Logger, words []Word, annotations []Annotation) []Word {
	byID := make(map[int64]int, len(words))
	for i, w := range words {
		byID[w.ID] = i
	}
	for _, a := range annotations {
		i, ok := byID[a.WordID]
		if !ok {
			log.Warn("dropping orphaned annotation",
				zap.Int64("annotation_id", a.ID),
				zap.Int64("word_id", a.WordID))
			continue
		}
		words[i].Annotations = append(words[i].Annotations, a)
	}
	for _, w := range words {
		for _, typ := range [...]string{TypeLanguage, TypePOS} {
			if _, ok := w.Annotation(typ); !ok {
				log.Warn("word missing annotation",
					zap.Int64("word_id", w.ID),
					zap.String("type", typ))
			}
		}
	}
	return words
}
