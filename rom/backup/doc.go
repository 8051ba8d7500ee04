// Package backup captures and restores copies of a patch.Engine image.
//
// A full backup holds the whole image by value. A delta backup holds only
// the byte spans that differ from a full base backup. Either kind records
// the BLAKE3-256 digest of the image it reconstructs, and RestoreBackup
// verifies the digest before touching the live image.
//
// Backups are never deleted implicitly: restoring keeps the backup, and
// storage growth is managed by the caller through DeleteBackup.
//
// With a Store attached, each backup is also written to a directory as a
// CBOR envelope, optionally zstd or LZ4 compressed, so OpenManager can
// pick them up again in a later process.
package backup
