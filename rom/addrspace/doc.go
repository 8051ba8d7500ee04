// Package addrspace validates and classifies offsets into a fixed-size ROM
// image.
//
// Two address notations exist and are never mixed implicitly:
//
//   - Address is a file offset into the image (after any copier header is
//     stripped). Every other romkit package speaks Address.
//   - BusAddress is the 24-bit bank:offset address the CPU sees. How it maps
//     to a file offset depends on the cartridge mapping (LoROM, HiROM,
//     ExHiROM); Space.FromBus and Space.ToBus convert explicitly and fail
//     for addresses that do not map to ROM (WRAM, I/O, LoROM lower halves).
//
// A Space carries a set of named Regions. Regions either nest or are
// disjoint; Classify reports the innermost region containing an address,
// and only addresses inside a writable innermost region accept writes.
package addrspace
