// Package planner splits an object into contiguous parts.
//
// Plan computes every part up front when the size is known. A Streamer cuts
// parts from a reader of unknown length as data arrives and recognises the
// final part only at end of stream.
package planner
