// Package frame converts byte streams and whole transport messages into
// single JSON documents and back.
package frame

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

const (
	// MaxHeaderBytes caps the header block of one stream frame.
	MaxHeaderBytes = 8 << 10
	// MaxBodyBytes caps the body of one stream frame.
	MaxBodyBytes = 32 << 20
)

var headerEnd = []byte("\r\n\r\n")

// Reader reads Content-Length framed messages from a byte stream.
type Reader struct {
	br *bufio.Reader
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Read returns the next message body. Any malformed or truncated frame ends
// the stream: Read reports io.EOF and the caller closes the connection
// without replying. Other errors come from the underlying reader.
func (r *Reader) Read() ([]byte, error) {
	header, err := r.readHeader()
	if err != nil {
		return nil, err
	}

	n, ok := contentLength(header)
	if !ok {
		return nil, io.EOF
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r.br, body); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	return body, nil
}

func (r *Reader) readHeader() ([]byte, error) {
	var buf []byte
	for {
		b, err := r.br.ReadByte()
		if err != nil {
			return nil, err
		}
		buf = append(buf, b)
		if bytes.HasSuffix(buf, headerEnd) {
			return buf[:len(buf)-len(headerEnd)], nil
		}
		if len(buf) > MaxHeaderBytes {
			return nil, io.EOF
		}
	}
}

// contentLength finds a Content-Length header, case-insensitively. The last
// occurrence wins.
func contentLength(header []byte) (int, bool) {
	n, found := 0, false
	for _, line := range strings.Split(string(header), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || v < 0 || v > MaxBodyBytes {
			return 0, false
		}
		n, found = v, true
	}
	return n, found
}

// Writer writes Content-Length framed messages. It is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	bw *bufio.Writer
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Write emits one frame and flushes it.
func (w *Writer) Write(body []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	header := "Content-Length: " + strconv.Itoa(len(body)) + "\r\nContent-Type: application/json\r\n\r\n"
	if _, err := w.bw.WriteString(header); err != nil {
		return goerr.Wrap(err, "write frame header")
	}
	if _, err := w.bw.Write(body); err != nil {
		return goerr.Wrap(err, "write frame body")
	}
	if err := w.bw.Flush(); err != nil {
		return goerr.Wrap(err, "flush frame")
	}
	return nil
}
