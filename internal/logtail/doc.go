// Package logtail reads the end of the application log and turns its JSON
// lines into something readable in the terminal.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries while scanning the file once,
// so memory stays O(maxLines) regardless of file size. Lines come back in
// chronological order. A missing file is not an error and yields nil.
//
//	lines, err := logtail.Read(cfg.LogFile, 400)
//
// # Formatting
//
// The logger writes one JSON object per line. Format renders such a line as
//
//	21:01:05 INFO job started job_id=abc target=/photos
//
// The time is shown in local time, fields follow the message sorted by key,
// and caller and stack are dropped. Anything that is not a JSON object, such
// as a panic trace, is returned unchanged.
package logtail
