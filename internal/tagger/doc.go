// Package tagger walks a directory of images, asks a Recognizer for labels
// and stores them in XMP sidecar files.
//
// Recognition runs in a separate, long-lived process so the model is loaded
// once per job. The workflow polls the cancellation capability before every
// image and returns jobs.ErrCancelled as soon as it sees a request; images
// after that point are left untouched.
//
// Problems with a single image (unreadable sidecar, recognizer error, failed
// write) are reported as error output and counted, and the run continues.
// A recognizer that cannot start or has exited ends the run with an
// *ImageError.
package tagger
