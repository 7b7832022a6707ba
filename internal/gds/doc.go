// Package gds reads and writes GDSII stream files.
//
// A stream is a sequence of records, each carrying a 4-byte header (total
// length, record type, data type) followed by big-endian payload. [Decode]
// turns a stream into a [Library] of [Structure] values holding the elements
// the rest of pathlength cares about:
//   - [Boundary] polygons
//   - [Path] centerlines with width
//   - [Text] labels
//   - [Reference] placements (SREF and AREF)
//
// BOX and NODE elements, properties and path extensions are parsed past and
// dropped. Coordinates stay in database units; [Library.UserUnit] converts
// them to user units (usually microns).
//
// [Encode] writes a Library back out and is used for fixtures and the sample
// command.
package gds
