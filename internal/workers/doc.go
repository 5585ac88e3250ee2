/*
Package workers sizes bounded pools from the CPUs the process may use.

runtime.NumCPU reports host CPUs even inside a container with a CPU quota,
while GOMAXPROCS follows the quota. Count uses GOMAXPROCS:

	n := workers.ForCPU(4) // one per CPU, never more than 4

The preview generator uses this to bound concurrent ffmpeg frame grabs.
Set PREVIEW_WORKERS to a positive integer to pin the count; the limit
still applies.
*/
package workers
