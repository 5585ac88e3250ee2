package encoding

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// coarseStamp is the layout used for untrimmed segments (YYMMDDhhmmss).
const coarseStamp = "060102150405"

// SegmentFileName returns the file name for segment index of a batch started at now.
// Trimmed segments embed a microsecond timestamp and their bounds; untrimmed
// ones a coarse timestamp. The index keeps names distinct inside one batch.
func SegmentFileName(seg Segment, index int, now time.Time) string {
	if seg.Trimmed() {
		return fmt.Sprintf("segment_%d.%06d_%d_ss_%s_to_%s%s",
			now.Unix(), now.Nanosecond()/1000, index,
			underscored(seg.Start), underscored(seg.End), OutputExtension)
	}
	return fmt.Sprintf("segment_%s_%d%s", now.Format(coarseStamp), index, OutputExtension)
}

// FinalOutputPath returns the candidate path for slot n of the combined output.
func FinalOutputPath(dir, base string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, OutputExtension))
}

func underscored(t TimeCode) string {
	return strings.ReplaceAll(string(t), ":", "_")
}
