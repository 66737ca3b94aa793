package jsonstream

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"slices"

	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
)

const (
	// DefaultMaxBufferSize is the ceiling for bytes held while waiting for a frame to complete.
	DefaultMaxBufferSize = 1024 * 1024 // 1MB

	// readChunkSize is the size of each read from the underlying stream.
	readChunkSize = 64 * 1024
)

// Decoder turns arbitrarily chunked text into complete top-level JSON values.
//
// A Decoder is not safe for concurrent use; it belongs to the goroutine reading the stream.
// Once Feed or Finish returns an error the decoder is poisoned and keeps returning it.
type Decoder struct {
	buf           []byte
	maxBufferSize int
	err           error
}

// NewDecoder creates a decoder that fails once an incomplete frame exceeds maxBufferSize bytes.
// A non-positive size selects DefaultMaxBufferSize.
func NewDecoder(maxBufferSize int) *Decoder {
	if maxBufferSize <= 0 {
		maxBufferSize = DefaultMaxBufferSize
	}

	return &Decoder{maxBufferSize: maxBufferSize}
}

// MaxBufferSize returns the configured ceiling.
func (d *Decoder) MaxBufferSize() int {
	return d.maxBufferSize
}

// Buffered returns the number of bytes held that have not yet formed a frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Feed appends chunk to the buffer and returns every frame that is now complete, in order.
//
// Frames decoded before a fatal error are still returned alongside it.
func (d *Decoder) Feed(chunk []byte) ([]any, error) {
	if d.err != nil {
		return nil, d.err
	}

	d.buf = append(d.buf, chunk...)

	frames, err := d.drain(false)
	if err != nil {
		d.fail(err)

		return frames, err
	}

	if len(d.buf) > d.maxBufferSize {
		d.fail(&errors.BufferSizeExceededError{
			Limit: d.maxBufferSize,
			Size:  len(d.buf),
		})

		return frames, d.err
	}

	return frames, nil
}

// Finish signals end of stream. A blank remainder ends cleanly; anything else that cannot
// form a frame is a TrailingDataError.
func (d *Decoder) Finish() ([]any, error) {
	if d.err != nil {
		return nil, d.err
	}

	frames, err := d.drain(true)
	if err != nil {
		d.fail(err)

		return frames, err
	}

	if len(bytes.TrimSpace(d.buf)) > 0 {
		d.fail(&errors.TrailingDataError{RawData: errors.TruncateRaw(d.buf)})

		return frames, d.err
	}

	d.buf = nil

	return frames, nil
}

// drain decodes complete values from the front of the buffer until it runs out of data.
// When final is false a scalar that ends exactly at the buffer end is held back, since
// more digits or letters may still arrive.
func (d *Decoder) drain(final bool) ([]any, error) {
	var frames []any

	rest := d.buf
	consumed := false

	for {
		rest = bytes.TrimLeft(rest, " \t\r\n")
		if len(rest) == 0 {
			consumed = consumed || len(d.buf) > 0
			break
		}

		value, n, err := decodeOne(rest)
		if err != nil {
			if stderrors.Is(err, io.ErrUnexpectedEOF) {
				break
			}

			return frames, &errors.CLIJSONDecodeError{
				RawData: errors.TruncateRaw(rest),
				Err:     err,
			}
		}

		if !final && n == len(rest) && isScalar(value) {
			break
		}

		frames = append(frames, value)
		rest = rest[n:]
		consumed = true
	}

	if consumed {
		if len(rest) == 0 {
			d.buf = nil
		} else {
			d.buf = slices.Clone(rest)
		}
	}

	return frames, nil
}

// fail poisons the decoder and releases the buffer.
func (d *Decoder) fail(err error) {
	d.err = err
	d.buf = nil
}

// decodeOne parses a single JSON value from the start of data and reports how many
// bytes it consumed. Incomplete input yields io.ErrUnexpectedEOF.
func decodeOne(data []byte) (any, int, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	var value any
	if err := dec.Decode(&value); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, 0, io.ErrUnexpectedEOF
		}

		return nil, 0, err
	}

	return value, int(dec.InputOffset()), nil
}

// isScalar reports whether v is a number, boolean or null.
func isScalar(v any) bool {
	switch v.(type) {
	case map[string]any, []any, string:
		return false
	default:
		return true
	}
}

// Frames lazily decodes frames from r. A terminal error (read failure, decode failure,
// or trailing incomplete data at EOF) is yielded once and ends the sequence.
func Frames(r io.Reader, maxBufferSize int) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		dec := NewDecoder(maxBufferSize)
		chunk := make([]byte, readChunkSize)

		for {
			n, readErr := r.Read(chunk)
			if n > 0 {
				frames, err := dec.Feed(chunk[:n])
				for _, frame := range frames {
					if !yield(frame, nil) {
						return
					}
				}

				if err != nil {
					yield(nil, err)

					return
				}
			}

			if readErr == nil {
				continue
			}

			if !stderrors.Is(readErr, io.EOF) {
				yield(nil, fmt.Errorf("read stream: %w", readErr))

				return
			}

			frames, err := dec.Finish()
			for _, frame := range frames {
				if !yield(frame, nil) {
					return
				}
			}

			if err != nil {
				yield(nil, err)
			}

			return
		}
	}
}
