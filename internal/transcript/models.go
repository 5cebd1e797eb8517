// Package transcript assembles flat transcript rows into segment, word and
// annotation trees and lays tokens out for display.
package transcript

import "fmt"

// Annotation types with special meaning.
const (
	TypeLanguage = "language"
	TypePOS      = "pos"
	TypeSwitch   = "switch"
)

// Placeholders shown when a word lacks a required annotation.
const (
	UnknownLanguage = "und"
	UnknownPOS      = "?"
)

// DataSource is an audio/text source that owns segments.
type DataSource struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Creator string `json:"creator"`
	URL     string `json:"url"`
}

// Segment is a time range of one data source and its ordered words.
// Assembled segments are shared and must not be modified.
type Segment struct {
	ID           int64  `json:"id"`
	DataSourceID int64  `json:"dataSourceId"`
	SourceName   string `json:"sourceName"`
	StartMS      int64  `json:"startMs"`
	EndMS        int64  `json:"endMs"`
	Words        []Word `json:"words"`
}

// Text returns the segment's words joined for display.
func (s Segment) Text() string {
	return Text(s.Words)
}

// TimeRange formats the segment's time range as mm:ss.mmm–mm:ss.mmm.
func (s Segment) TimeRange() string {
	return FormatOffset(s.StartMS) + "–" + FormatOffset(s.EndMS)
}

// FormatOffset formats a millisecond offset as mm:ss.mmm. Minutes are not
// wrapped into hours.
func FormatOffset(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}

// HasSwitch reports whether any word carries a switch annotation.
func (s Segment) HasSwitch() bool {
	for _, w := range s.Words {
		if _, ok := w.Annotation(TypeSwitch); ok {
			return true
		}
	}
	return false
}

// Word is a token of a segment.
type Word struct {
	ID          int64        `json:"id"`
	SegmentID   int64        `json:"segmentId"`
	Index       int64        `json:"index"`
	SurfaceForm string       `json:"surfaceForm"`
	Annotations []Annotation `json:"annotations"`
}

// Annotation returns the value of the first annotation of the given type.
func (w Word) Annotation(typ string) (string, bool) {
	for _, a := range w.Annotations {
		if a.Type == typ {
			return a.Value, true
		}
	}
	return "", false
}

// Language returns the language tag or UnknownLanguage.
func (w Word) Language() string {
	if v, ok := w.Annotation(TypeLanguage); ok {
		return v
	}
	return UnknownLanguage
}

// POS returns the part-of-speech tag or UnknownPOS.
func (w Word) POS() string {
	if v, ok := w.Annotation(TypePOS); ok {
		return v
	}
	return UnknownPOS
}

// IsContinuation reports whether the word attaches to the previous one.
func (w Word) IsContinuation() bool {
	return isContinuation(w.SurfaceForm)
}

// Display returns the surface form without continuation markers.
func (w Word) Display() string {
	return StripContinuation(w.SurfaceForm)
}

// Annotation is a typed tag on a word.
type Annotation struct {
	ID     int64  `json:"id"`
	WordID int64  `json:"wordId"`
	Type   string `json:"type"`
	Value  string `json:"value"`
}

// Triple is a flattened annotation.
type Triple struct {
	WordID int64
	Type   string
	Value  string
}

// FlattenAnnotations lists every annotation of words in word order.
func FlattenAnnotations(words []Word) []Triple {
	var out []Triple
	for _, w := range words {
		for _, a := range w.Annotations {
			out = append(out, Triple{WordID: w.ID, Type: a.Type, Value: a.Value})
		}
	}
	return out
}
