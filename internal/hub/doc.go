// Package hub is a small client for Hugging Face compatible model hubs.
//
// It knows two requests:
//
//   - HEAD /<repo>/resolve/<revision>/<file> without following redirects,
//     which yields the commit, etag and size of a file (Resolve)
//   - GET on the same path following redirects, streamed in chunks (Download)
//
// The package also describes the on-disk hub cache layout shared with other
// tools, so a model fetched by one of them is reused by the others:
//
//	<root>/models--<owner>--<name>/
//	    refs/<revision>              commit hash
//	    blobs/<etag>                 file content
//	    snapshots/<commit>/<file>    the file as seen at commit
//
// Status codes of 400 and above are returned as errors naming the request path.
// Retries and caching decisions are left to the caller.
package hub
