// Package jsonstream decodes a stream of concatenated JSON values.
//
// The Claude CLI writes one JSON object per line on stdout, but pipe reads do not
// respect line or value boundaries: a read may hold several objects, or a fragment
// of one object split mid-string. Decoder accumulates chunks and extracts every
// complete top-level value using encoding/json's streaming decoder, so embedded
// newlines and arbitrary split points are handled uniformly.
//
// Memory is bounded: when an incomplete value grows past the configured maximum
// buffer size, decoding fails with a BufferSizeExceededError instead of buffering
// without limit.
//
//	for frame, err := range jsonstream.Frames(stdout, jsonstream.DefaultMaxBufferSize) {
//	    if err != nil {
//	        return err
//	    }
//	    // dispatch frame
//	}
package jsonstream
