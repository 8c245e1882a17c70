package faq

import "errors"

var (
	// ErrVersionNotFound is returned when a dataset label does not exist.
	ErrVersionNotFound = errors.New("faq: dataset version not found")
	// ErrNoActiveVersion is returned when no dataset has been activated yet.
	ErrNoActiveVersion = errors.New("faq: no active dataset version")
	// ErrVersionExists is returned when uploading a label that is already taken.
	ErrVersionExists = errors.New("faq: dataset version already exists")
	// ErrEmptyDataset is returned when an upload contains no usable rows.
	ErrEmptyDataset = errors.New("faq: dataset has no entries")
	// ErrInvalidDataset is returned when a dataset row cannot be parsed.
	ErrInvalidDataset = errors.New("faq: invalid dataset")
	// ErrInvalidLabel is returned when an upload has no label.
	ErrInvalidLabel = errors.New("faq: dataset label is required")
)
