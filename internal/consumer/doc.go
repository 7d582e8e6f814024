// Package consumer runs the members of a stream consumer group.
//
// A Pool starts N workers. Each worker blocks on the stream for one entry at
// a time, drops entries rejected by the optional CEL filter or past their TTL
// hint, hands the rest to a Handler and acknowledges on success. Failed
// entries stay pending; the Reclaimer periodically acknowledges entries that
// stayed pending longer than the configured idle threshold.
package consumer
