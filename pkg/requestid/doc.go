// Package requestid attaches a correlation id to every HTTP request and
// every call received on a duplex channel.
//
// Middleware reuses a client supplied X-Request-ID when it is short and
// contains only [a-zA-Z0-9_-]; otherwise a UUIDv4 is generated. The id is
// stored in the context (WithContext / FromContext), echoed in the response
// header and picked up by the logger through LoggerExtractor.
package requestid
