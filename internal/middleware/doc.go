// Package middleware provides the HTTP middleware chain of the web form and
// JSON API: W3C Extended Log Format access logging, Prometheus request
// metrics labelled by route template, and gzip compression of HTML and JSON
// responses.
package middleware
