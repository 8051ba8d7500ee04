// Package types defines the error taxonomy shared by every romkit package.
//
// Errors carry a stable Kind so callers can branch on intent rather than
// text. Contextual errors built with New or Wrap still match the package
// sentinels through errors.Is:
//
//	if _, err := eng.WriteByte(addr, 0xE7); errors.Is(err, types.ErrNotWritable) {
//		// probe another address
//	}
//
// This package has no dependencies beyond the standard library.
package types
