// Package preview renders still frames of an input video so trim points can
// be checked before encoding. Frames are grabbed with ffmpeg, scaled with
// imaging and returned as JPEG.
package preview
