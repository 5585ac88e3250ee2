// Command webm-trimmer trims and transcodes videos to VP9/Opus WebM with
// ffmpeg.
//
// Subcommands:
//
//	serve            run the web form, JSON API and metrics endpoint
//	encode           run one submission from flags or a job file
//	history          list recent submissions
//	password set     set the login password
//	password status  show whether login is required
//
// Configuration comes from the environment; see package startup.
package main
