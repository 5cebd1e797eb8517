package app

import (
	"github.com/ES-COCO/es-coco/internal/db"
	"github.com/ES-COCO/es-coco/internal/transcript"
)

// StoreOpenedMsg is sent when the database finished loading.
type StoreOpenedMsg struct {
	Store *db.Store
}

// StoreErrorMsg is sent when the database could not be loaded.
type StoreErrorMsg struct {
	Err error
}

// SegmentsLoadedMsg carries assembled segments for a view.
type SegmentsLoadedMsg struct {
	Mode     ViewMode
	Segments []transcript.Segment
	// Set for ViewDataSource.
	DataSource *transcript.DataSource
	// Segment to select once loaded, 0 for none.
	SelectedID int64
	// Request number of a ViewDataSource load.
	Seq int
}

// QueryErrorMsg is sent when a query after load fails.
type QueryErrorMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
