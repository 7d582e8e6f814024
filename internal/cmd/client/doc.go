// Package client provides the `serialflo` command-line client.
//
// The commands talk to the serialflo admin HTTP API. The base URL is
// supplied by the embedding binary through a BaseURLFunc; the standalone
// binary reads SERIALFLO_HTTP and defaults to http://127.0.0.1:8080.
//
// Usage
//
//	serialflo trigger --key orderA --payload '{"step":1}'
//	serialflo trigger --key orderA --payload '{"step":2}' --type LIFO --ttl-sec 600
//	serialflo trigger --payload 'no ordering needed'     # blank key publishes directly
//
//	serialflo stream count
//	serialflo stream pending --limit 20 --idle-ms 60000
//	serialflo stream reclaim --idle-ms 300000
//	serialflo stream ack --id 1726833600000-0
package client
