// Package lineio reads newline-terminated input with a per-line size limit.
package lineio

import (
	"bufio"
	"errors"
	"io"
)

// ErrLineTooLong is returned for a line longer than the reader's limit. The
// whole line has been consumed, so the next read starts on the following line.
var ErrLineTooLong = errors.New("line too long")

// Reader yields lines without their "\n" or "\r\n" terminator.
type Reader struct {
	r     *bufio.Reader
	limit int
}

// NewReader wraps r. Lines longer than limit bytes are skipped and reported.
func NewReader(r io.Reader, limit int) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, limit: limit}
}

// ReadLine returns the next line. A final line without a terminator is
// returned normally; io.EOF is returned only once no bytes remain.
func (lr *Reader) ReadLine() (string, error) {
	var (
		line    []byte
		started bool
		tooLong bool
	)
	for {
		chunk, isPrefix, err := lr.r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && started {
				break
			}
			return "", err
		}
		started = true
		if !tooLong {
			if len(line)+len(chunk) > lr.limit {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	if tooLong {
		return "", ErrLineTooLong
	}
	return string(line), nil
}
