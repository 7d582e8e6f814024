// Package stream implements the Log Service: a Redis stream read through one
// consumer group with at-least-once delivery.
//
// # Keyspace
//
//	{group}:stream                  - the log (XADD/XREADGROUP/XACK/XPENDING)
//	{business key}                  - per-key list drained by the drain package
//	_serial_{business key}_token    - coordination token fingerprinting the drain epoch
//
// # Entry fields
//
//	message             - raw payload, or the per-key list key for FIFO/LIFO entries
//	messageType         - FIFO | LIFO | absent
//	ttl                 - absolute expiry hint, unix milliseconds
//	correlationIdSuffix - optional suffix appended to the consumer's correlation id
//
// # Lifecycle
//
//  1. Publish: XADD by a Publisher
//  2. ConsumeOne: XREADGROUP ... BLOCK readTimeout STREAMS key >
//  3. Ack: XACK removes the entry from the pending set
//  4. ReclaimExpired: pending entries idle past a threshold are acknowledged
//     in blocks of 1000 without reprocessing; the work item itself lives in
//     the per-key list, not in the entry.
package stream
