// Package logging provides a simple leveled logging interface for webm-trimmer.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information, including full ffmpeg argument lists
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions, including failed ffmpeg runs
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable (or
// DEBUG=true), and the CLI may override it with [SetLevel].
package logging
