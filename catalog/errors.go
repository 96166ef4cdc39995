package catalog

import "errors"

var (
	// ErrNotFound is returned when an Institution, Product or Document
	// lookup fails.
	ErrNotFound = errors.New("not found")

	// ErrExists is returned when a document insert collides with an
	// already recorded (product ID, url) pair.
	ErrExists = errors.New("already exists")

	// ErrUnknownOwner is returned when we attempt to insert a product or
	// document that references a non-existent parent record.
	ErrUnknownOwner = errors.New("unknown owner record")
)
