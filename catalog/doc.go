// Package catalog stores discoveries: typed, addressed facts about a ROM
// image, each carrying a confidence level.
//
// Entries are immutable once added. Correcting a discovery adds a new
// entry that names its predecessor (Supersede, Promote); the predecessor
// stays queryable and its id is never reused.
//
// A file-backed catalog writes the full next state to its Store before
// applying a mutation in memory. If the write fails, the mutation is
// rejected with a Persistence error and the catalog is unchanged.
//
// The Catalog is NOT safe for concurrent use, and two processes must not
// open the same catalog file: the store assumes a single writer and does
// no locking.
package catalog
