// Package server implements the UDP listener that receives scoring system
// datagrams and the HTTP API for monitoring and management. Datagrams are
// parsed and dispatched strictly in arrival order on a single receive loop,
// so event ordering always matches wire ordering.
package server
