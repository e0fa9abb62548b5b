// Package ingest serves the HTTP endpoints mobile clients post telemetry to.
//
//	POST /api/logs     {"level": "info", "message": "...", "attributes": {...}}
//	POST /api/metrics  {"type": "counter", "name": "mobile.app.start", "value": 1}
//
// Responses:
//
//   - 200 {"success": true} once the event is accepted for forwarding
//   - 400 with an error body when validation fails
//   - 429 with Retry-After when the client exceeds its per-minute limit
//   - 500 with a generic message on unexpected failures
//
// Acceptance says nothing about delivery: events are forwarded in the
// background and collector failures are never visible to the client.
package ingest
