package transcript

import "strings"

// ContinuationMarker prefixes a token that attaches to the previous token.
const ContinuationMarker = "##"

// Tokens that never take a leading space.
var tightPunctuation = map[string]bool{
	"'":  true,
	",":  true,
	".":  true,
	"?":  true,
	"¿":  true,
	"\"": true,
	"-":  true,
}

// Piece is a laid out token.
type Piece struct {
	Word  Word
	Text  string
	Space bool // a single space precedes Text
}

func isContinuation(form string) bool {
	return strings.HasPrefix(form, ContinuationMarker)
}

// StripContinuation removes all leading continuation markers.
func StripContinuation(form string) string {
	for isContinuation(form) {
		form = form[len(ContinuationMarker):]
	}
	return form
}

// spaceBefore decides whether w, following prev, is preceded by a space.
func spaceBefore(prev string, w Word, first bool) bool {
	if first || w.IsContinuation() {
		return false
	}
	if strings.HasSuffix(prev, "'") || strings.HasSuffix(prev, "-") {
		return false
	}
	return !tightPunctuation[w.SurfaceForm]
}

// Layout lays out words in order.
func Layout(words []Word) []Piece {
	pieces := make([]Piece, len(words))
	var prev string
	for i, w := range words {
		text := w.Display()
		pieces[i] = Piece{
			Word:  w,
			Text:  text,
			Space: spaceBefore(prev, w, i == 0),
		}
		prev = text
	}
	return pieces
}

// Text joins words into display text.
func Text(words []Word) string {
	return JoinPieces(Layout(words))
}

// JoinPieces concatenates laid out pieces.
func JoinPieces(pieces []Piece) string {
	var b strings.Builder
	for _, p := range pieces {
		if p.Space {
			b.WriteByte(' ')
		}
		b.WriteString(p.Text)
	}
	return b.String()
}
