// Package relish reads and writes the Relish binary TLV format through the
// untangle capability interface.
//
// Every Relish value names its own type, so a Decoder can be buffered and
// replayed like any self-describing input. Struct field ids are positions:
// field i of a record is written with id i, absent fields are skipped, and
// ids must be strictly increasing on the wire. Enum variant ids are variant
// indexes.
package relish
