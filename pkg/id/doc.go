// Package id models Redis stream entry identifiers.
//
// # Format
//
// A stream entry id is "<ms>-<seq>": the server's millisecond clock at
// insertion time and a sequence number disambiguating entries created in the
// same millisecond. Ordering is by ms, then seq, which is also the order the
// stream stores entries in.
//
// # Range bounds
//
// Min and Max render as "-" and "+", the open bounds accepted by XPENDING and
// XRANGE. Next and Prev return the adjacent id, which turns an inclusive
// range command into an exclusive cursor when paging.
//
// Usage
//
//	v, _ := id.Parse("1700000000000-3")
//	next := v.Next() // 1700000000000-4
//	_ = v.Compare(next) // -1
package id
