// Package server ties the gateway's HTTP pieces together: it builds
// the route table, wraps it in the middleware chain, and manages the
// http.Server lifecycle (bind, serve, graceful shutdown).
package server
