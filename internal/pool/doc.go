// Package pool provides reusable byte buffers.
//
// Part buffers are pooled per size so streaming uploads with unknown length
// reuse memory across parts, and a separate copy-buffer pool serves download
// copies.
package pool
