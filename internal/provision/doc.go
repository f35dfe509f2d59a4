// Package provision makes sure the recognition model is available locally
// before a tagging job starts.
//
// The model lives in the shared Hugging Face hub cache, so a copy fetched by
// other tools is reused. A fully cached revision is returned without any
// network access. Otherwise the file is resolved through package hub,
// streamed to blobs/<etag>.incomplete and moved into place once complete.
//
// The cancellation poll is checked between download chunks; a cancelled
// download removes the partial file and returns jobs.ErrCancelled.
package provision
