package domain

import "errors"

var (
	ErrNoJournalRoot    = errors.New("no readable journal root directory")
	ErrCarrierNotFound  = errors.New("carrier not found")
	ErrSegmentTruncated = errors.New("segment shorter than its cursor")
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrSnapshotInvalid  = errors.New("snapshot invalid")
)
