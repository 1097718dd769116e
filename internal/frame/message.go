package frame

import (
	"bufio"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/m-mizutani/goerr/v2"
)

// MaxMessageBytes is the read limit for one WebSocket message.
const MaxMessageBytes = 64 << 10

// ErrTooLarge is returned when a whole message does not fit its buffer.
var ErrTooLarge = goerr.New("message exceeds buffer")

// ReadMessage reads one whole message of at most limit bytes. It never
// reads more than limit+1 bytes from r.
func ReadMessage(r io.Reader, limit int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, goerr.Wrap(ErrTooLarge, "read message", goerr.V("limit", limit))
	}
	return data, nil
}

// DecodeBody wraps body with a decompressor for the given Content-Encoding.
// Only gzip and deflate are decoded; other encodings pass through. Deflate
// bodies are accepted both zlib-wrapped and raw.
func DecodeBody(encoding string, body io.Reader) (io.ReadCloser, error) {
	enc := strings.ToLower(encoding)
	switch {
	case strings.Contains(enc, "gzip"):
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, goerr.Wrap(err, "open gzip body")
		}
		return zr, nil

	case strings.Contains(enc, "deflate"):
		br := bufio.NewReader(body)
		if isZlib(br) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, goerr.Wrap(err, "open zlib body")
			}
			return zr, nil
		}
		return flate.NewReader(br), nil
	}
	return io.NopCloser(body), nil
}

// isZlib sniffs an RFC 1950 header: CM=8 in the low nibble of CMF and a
// header checksum divisible by 31.
func isZlib(br *bufio.Reader) bool {
	h, err := br.Peek(2)
	if err != nil {
		return false
	}
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}
