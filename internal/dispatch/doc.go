// Package dispatch routes decoded PSS messages to their semantic decoder
// and publishes the resulting events. Routing is table-driven: streams
// without a protocol definition or without a decoder are dropped quietly,
// and no decoder can fail the receive path.
package dispatch
