// Package draft stores the unpublished coupon currently being authored so it
// can be recovered after the wizard exits unexpectedly.
//
// There is exactly one draft at a time. A draft is the serialized partial
// coupon plus the time it was saved; it is replaced wholesale on every save
// and removed when the coupon is saved, published or discarded.
//
// # File Format
//
// FileStore writes YAML (same conventions as the configuration file):
//
//	# couponwiz draft
//	version: 1
//	saved_at: 2026-03-01T10:30:45Z
//	coupon:
//	    name: Spring Sale
//	    type: percentage
//	    value: 20
//
// Writes go to a temporary file first and are renamed into place.
//
// # Usage
//
//	store := draft.NewFileStore(cfg.Storage.DraftPath)
//	if err := store.Save(ctx, record); err != nil { ... }
//
//	d, err := store.Load(ctx) // d == nil when no draft exists
package draft
