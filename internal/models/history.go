package models

// HistoryRecord is one archived lease summary. The archive is append-only;
// records are only removed by the bounded administrative prune.
type HistoryRecord struct {
	// ID is the sequential identifier assigned by storage.
	ID int64

	// Content is the pipe-delimited lease summary (see Lease.Summary).
	Content string

	CreatedAt int64
}
