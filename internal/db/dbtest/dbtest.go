// Package dbtest builds in-memory transcript databases for tests.
package dbtest

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// Schema mirrors the tables of the published transcript database.
const Schema = `
	CREATE TABLE DataSources (
		id INTEGER PRIMARY KEY,
		name TEXT,
		creator TEXT,
		url TEXT
	);

	CREATE TABLE Segments (
		id INTEGER PRIMARY KEY,
		data_source_id INTEGER REFERENCES DataSources(id),
		start_ms INTEGER,
		end_ms INTEGER
	);

	CREATE TABLE Words (
		id INTEGER PRIMARY KEY,
		segment_id INTEGER REFERENCES Segments(id),
		word_index INTEGER,
		surface_form TEXT
	);

	CREATE TABLE AnnotationTypes (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE WordAnnotations (
		id INTEGER PRIMARY KEY,
		word_id INTEGER REFERENCES Words(id),
		annotation_type_id INTEGER,
		value TEXT
	);
`

// New returns an in-memory database holding the empty schema.
func New(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	// One connection, otherwise each connection sees its own empty database.
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if _, err := conn.Exec(Schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return conn
}

// Exec runs a statement and fails the test on error.
func Exec(t *testing.T, conn *sql.DB, query string, params ...any) {
	t.Helper()
	if _, err := conn.Exec(query, params...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

// DataSource inserts a data source.
func DataSource(t *testing.T, conn *sql.DB, id int64, name, creator, url string) {
	t.Helper()
	Exec(t, conn, `INSERT INTO DataSources (id, name, creator, url) VALUES (?, ?, ?, ?)`,
		id, name, creator, url)
}

// Segment inserts a segment.
func Segment(t *testing.T, conn *sql.DB, id, dataSourceID, startMS, endMS int64) {
	t.Helper()
	Exec(t, conn, `INSERT INTO Segments (id, data_source_id, start_ms, end_ms) VALUES (?, ?, ?, ?)`,
		id, dataSourceID, startMS, endMS)
}

// Word inserts a word.
func Word(t *testing.T, conn *sql.DB, id, segmentID, index int64, form string) {
	t.Helper()
	Exec(t, conn, `INSERT INTO Words (id, segment_id, word_index, surface_form) VALUES (?, ?, ?, ?)`,
		id, segmentID, index, form)
}

// Annotate tags a word, creating the annotation type on first use.
func Annotate(t *testing.T, conn *sql.DB, wordID int64, typ, value string) {
	t.Helper()
	Exec(t, conn, `INSERT OR IGNORE INTO AnnotationTypes (name) VALUES (?)`, typ)
	Exec(t, conn, `
		INSERT INTO WordAnnotations (word_id, annotation_type_id, value)
		VALUES (?, (SELECT id FROM AnnotationTypes WHERE name = ?), ?)`,
		wordID, typ, value)
}

// TaggedWord inserts a word with language and part-of-speech annotations.
func TaggedWord(t *testing.T, conn *sql.DB, id, segmentID, index int64, form, lang, pos string) {
	t.Helper()
	Word(t, conn, id, segmentID, index, form)
	Annotate(t, conn, id, "language", lang)
	Annotate(t, conn, id, "pos", pos)
}

// Sample returns a database with two data sources:
//
//	1 "Miami"  segments 1 (0-1000, switch), 2 (1000-2000)
//	2 "Bangor" segment  3 (500-1500, switch)
//
// Segment 1 reads "hello amigo ," with a switch on "amigo".
func Sample(t *testing.T) *sql.DB {
	t.Helper()
	conn := New(t)

	DataSource(t, conn, 1, "Miami", "Bangor University", "https://example.org/miami")
	DataSource(t, conn, 2, "Bangor", "Bangor University", "https://example.org/bangor")

	Segment(t, conn, 1, 1, 0, 1000)
	Segment(t, conn, 2, 1, 1000, 2000)
	Segment(t, conn, 3, 2, 500, 1500)

	TaggedWord(t, conn, 1, 1, 0, "he", "eng", "INTJ")
	TaggedWord(t, conn, 2, 1, 1, "##llo", "eng", "INTJ")
	TaggedWord(t, conn, 3, 1, 2, "amigo", "spa", "NOUN")
	TaggedWord(t, conn, 4, 1, 3, ",", "eng", "PUNCT")
	Annotate(t, conn, 3, "switch", "eng-spa")

	TaggedWord(t, conn, 5, 2, 0, "no", "spa", "ADV")
	TaggedWord(t, conn, 6, 2, 1, "sé", "spa", "VERB")

	TaggedWord(t, conn, 7, 3, 0, "I", "eng", "PRON")
	TaggedWord(t, conn, 8, 3, 1, "don't", "eng", "AUX")
	TaggedWord(t, conn, 9, 3, 2, "sabes", "spa", "VERB")
	Annotate(t, conn, 9, "switch", "eng-spa")

	return conn
}
