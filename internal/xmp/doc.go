// Package xmp reads and extends the keyword bags of XMP sidecar files.
//
// Only two properties are touched: dc:subject (flat keywords) and
// lr:hierarchicalSubject (keywords below a prefix, joined with "|"). Existing
// sidecars are edited at the text level so that everything else written by
// other applications survives unchanged.
package xmp
