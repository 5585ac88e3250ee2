// Package handlers provides the HTTP handlers of webm-trimmer.
//
// It includes handlers for:
//   - The submission form (GET and POST /), with flash messages kept in the
//     database between the redirect and the next page load
//   - The JSON API: submitting jobs, reading the submission history and the
//     form defaults
//   - Frame previews at a time code
//   - Optional password login and sessions
//   - Health, readiness and version endpoints
package handlers
