// Package sink encodes rendered glitch frames.
//
// [GIF], [PNG] and [ANSI] implement [Encoder] and are selected by format name
// with [ForFormat]. [MJPEG] writes frames one at a time as a
// multipart/x-mixed-replace stream for live HTTP playback.
package sink
