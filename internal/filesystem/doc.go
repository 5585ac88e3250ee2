/*
Package filesystem wraps the stat calls used to check user-supplied paths so
that they survive transient NFS failures.

Input videos and output directories often live on network shares. A stale
file handle (ESTALE) there usually clears on the next attempt, so Stat
retries it with exponential backoff:

	info, err := filesystem.Stat(path)

Defaults are 3 retries starting at 50ms and capped at 500ms. Any other
error is returned immediately, unchanged, so callers can keep using
errors.Is(err, fs.ErrNotExist).

Retries are counted in webm_trimmer_filesystem_retries_total and
webm_trimmer_filesystem_stale_errors_total.
*/
package filesystem
