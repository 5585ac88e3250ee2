// Package jobfile loads encoding requests from TOML or YAML files so a
// submission can be prepared once and replayed from the command line.
//
// Keys use snake_case, for example:
//
//	input_path = "~/Videos/talk.mp4"
//	output_dir = "~/Desktop"
//	output_name = "talk"
//	combine = true
//
//	[[segments]]
//	start = "00:01:00"
//	end = "00:02:30"
package jobfile
