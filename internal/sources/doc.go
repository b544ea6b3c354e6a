// Package sources fetches species and occurrence data from the biodiversity
// provider.
//
// Occurrence records are pulled through one of three strategies, selected by
// the sync.strategy setting:
//
//   - search: pages through the occurrence search endpoint. Every record keeps
//     its provider identifier, so repeated runs update rather than duplicate.
//     This is the default.
//   - download: requests a zipped CSV export and reads it row by row. Records
//     carry no identifier. Useful when the search endpoint is rate limited.
//   - facet: requests a table of rounded coordinates with occurrence counts and
//     expands each row into count identical records. Fast, but append-only.
//
// The species lookup helpers translate between local scientific names and
// provider identifiers and list the provider's species catalog.
package sources
