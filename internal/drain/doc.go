// Package drain consumes stream entries that name a per-key list and works
// through that list in FIFO or LIFO order.
//
// Each step rotates one element to the opposite end of the list with LMOVE,
// hands it to an ElementHandler, then removes it. A crash between rotate and
// remove leaves the element in the list for a later drain. Before handling an
// element the drain compares the key's coordination token with the value it
// saw at start; a different token means a newer drain owns the key and this
// one stops.
package drain
