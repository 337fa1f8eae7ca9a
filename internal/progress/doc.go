// Package progress builds progress snapshots and aggregates per-part byte
// counts into a command-wide running total.
//
// A Tracker keeps a high-watermark per part so bytes re-read after a retry
// are never reported twice. A Feed fans snapshots out to any number of
// channel subscribers without blocking the producer.
package progress
