// Package stream provides the instrumented reader used for every part body.
//
// A Reader reports each read through a callback, honours a context at read
// boundaries, and refuses writes. It can leave the wrapped source open on
// Close so the same source can be rewound and read again on retry.
package stream
