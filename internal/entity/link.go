// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which represents a shortened URL, along with its
// click counter, and the errors shared by the use case and its adapters.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrInvalidURL is returned when the destination is not a valid absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidSlug is returned when a custom slug is empty, too long, reserved or has disallowed characters.
	ErrInvalidSlug = errors.New("invalid slug")
	// ErrSlugTaken is returned when a link with the requested slug already exists.
	ErrSlugTaken = errors.New("slug already taken")
	// ErrLinkNotFound is returned when no link exists for the specified slug.
	ErrLinkNotFound = errors.New("link not found")
	// ErrStoreUnavailable is returned when the link store fails for reasons other than the above.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Link represents a shortened URL.
type Link struct {
	ID             int64     // ID is the unique identifier of the link in the store.
	Slug           string    // Slug is the short identifier appended to the service base URL.
	DestinationURL string    // DestinationURL is the absolute URL the slug redirects to.
	ClickCount     int64     // ClickCount is the number of redirects served for the slug.
	CreatedAt      time.Time // CreatedAt is the timestamp when the link was created.
}
