package entity

import "errors"

// Domain errors for the entity package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, entity.ErrMissingID) {
//	    // handle malformed record
//	}
var (
	// ErrMissingID is returned when a record is upserted without an id.
	// Indexing under an empty key would corrupt the secondary indices, so
	// the store fails fast instead.
	ErrMissingID = errors.New("entity: missing id")

	// ErrMissingKind is returned when equipment is upserted without a kind tag.
	ErrMissingKind = errors.New("entity: missing kind")

	// ErrInvalidKind is returned when a kind value is not recognised.
	ErrInvalidKind = errors.New("entity: invalid kind")

	// ErrUnknownBucket is returned by the loader when a source bucket name
	// maps to no known kind and the records carry no discriminator.
	ErrUnknownBucket = errors.New("entity: unknown bucket")
)
