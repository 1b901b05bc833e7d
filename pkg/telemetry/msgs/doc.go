// Package msgs defines the telemetry messages published by a station.
//
// Every message travels in a Typed envelope carrying its type ID and the
// sequence number of the Reading it was derived from.
package msgs
