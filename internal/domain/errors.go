package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrEntryNotFound indicates the requested work is not in the catalog
	ErrEntryNotFound = errors.New("entry not found")

	// ErrThumbnailUnavailable indicates the entry has no image to thumbnail
	ErrThumbnailUnavailable = errors.New("thumbnail unavailable")

	// ErrNotAnImage indicates a file could not be decoded as an image
	ErrNotAnImage = errors.New("file is not a supported image")

	// ErrLibraryNotConfigured indicates no library directory is set
	ErrLibraryNotConfigured = errors.New("library directory is not configured")
)
