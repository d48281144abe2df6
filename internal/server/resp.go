package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Protocol limits. Requests past these are treated as hostile and the
// connection is closed.
const (
	// MaxArrayLen limits the number of arguments in one request.
	MaxArrayLen = 1024

	// MaxBulkLen limits the size of a single bulk string (512MB, the
	// classic Redis value cap).
	MaxBulkLen = 512 * 1024 * 1024

	// MaxInlineLen limits inline command line length.
	MaxInlineLen = 64 * 1024
)

var (
	// ErrProtocol marks malformed request bytes. The session replies with
	// an error and closes; no resynchronization inside a corrupted stream
	// is attempted.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded marks requests past the protocol limits.
	ErrLimitExceeded = errors.New("resp: limit exceeded")
)

// reader decodes requests from a client byte stream. A request split
// across socket reads simply blocks on the buffered reader until the rest
// arrives; the caller's read deadline bounds the wait.
type reader struct {
	br *bufio.Reader
}

func newReader(r io.Reader) *reader {
	return &reader{br: bufio.NewReader(r)}
}

// Peek exposes the underlying buffered peek, used by the session loop to
// distinguish the idle wait from command reading.
func (r *reader) Peek(n int) ([]byte, error) {
	return r.br.Peek(n)
}

// ReadRequest reads one request: an array of bulk-string arguments, or an
// inline command line. A nil, error-free result means an empty request
// (empty line or zero-length array); the session ignores those.
func (r *reader) ReadRequest() ([][]byte, error) {
	b, err := r.br.Peek(1)
	if err != nil {
		return nil, err
	}

	if b[0] == '*' {
		return r.readArray()
	}

	// Inline command, e.g. "PING\r\n". Some clients and humans on nc
	// speak this.
	line, err := r.readLine(MaxInlineLen)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([][]byte, 0, len(fields))
	for _, f := range fields {
		out = append(out, []byte(f))
	}
	return out, nil
}

func (r *reader) readArray() ([][]byte, error) {
	// "*<n>\r\n"
	line, err := r.readLine(64)
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != '*' {
		return nil, fmt.Errorf("%w: expected array", ErrProtocol)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid array length", ErrProtocol)
	}
	if n <= 0 {
		return nil, nil
	}
	if n > MaxArrayLen {
		return nil, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxArrayLen)
	}

	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		arg, err := r.readBulk()
		if err != nil {
			return nil, err
		}
		out = append(out, arg)
	}
	return out, nil
}

func (r *reader) readBulk() ([]byte, error) {
	// "$<n>\r\n<bytes>\r\n"
	line, err := r.readLine(64)
	if err != nil {
		return nil, err
	}
	if len(line) < 2 || line[0] != '$' {
		return nil, fmt.Errorf("%w: expected bulk string", ErrProtocol)
	}
	n, err := strconv.Atoi(line[1:])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
	}
	if n > MaxBulkLen {
		return nil, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, MaxBulkLen)
	}

	buf := make([]byte, n+2)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return nil, err
	}
	if !bytes.HasSuffix(buf, crlf) {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return buf[:n], nil
}

var crlf = []byte("\r\n")

func (r *reader) readLine(maxLen int) (string, error) {
	var buf []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return "", err
	}

	if len(buf) > maxLen {
		return "", fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		return "", fmt.Errorf("%w: missing line terminator", ErrProtocol)
	}
	buf = buf[:len(buf)-1]
	// Tolerate a bare LF; humans on nc send those.
	if len(buf) > 0 && buf[len(buf)-1] == '\r' {
		buf = buf[:len(buf)-1]
	}
	return string(buf), nil
}

// writer encodes typed replies into the wire format. Replies accumulate
// in the buffered writer; the session flushes after each dispatch.
type writer struct {
	bw *bufio.Writer
}

func newWriter(w io.Writer) *writer {
	return &writer{bw: bufio.NewWriter(w)}
}

func (w *writer) Flush() error {
	return w.bw.Flush()
}

// Status writes a simple status reply, e.g. +OK.
func (w *writer) Status(s string) error {
	w.bw.WriteByte('+')
	w.bw.WriteString(s)
	_, err := w.bw.Write(crlf)
	return err
}

// Error writes an error reply, e.g. -ERR message.
func (w *writer) Error(s string) error {
	w.bw.WriteByte('-')
	w.bw.WriteString(s)
	_, err := w.bw.Write(crlf)
	return err
}

// Int writes an integer reply.
func (w *writer) Int(n int64) error {
	w.bw.WriteByte(':')
	w.bw.WriteString(strconv.FormatInt(n, 10))
	_, err := w.bw.Write(crlf)
	return err
}

// Null writes the null bulk reply.
func (w *writer) Null() error {
	_, err := w.bw.WriteString("$-1\r\n")
	return err
}

// NullArray writes the null array reply, used where a command with a
// count argument has no key to act on.
func (w *writer) NullArray() error {
	_, err := w.bw.WriteString("*-1\r\n")
	return err
}

// Bulk writes a bulk string reply; nil maps to the null reply.
func (w *writer) Bulk(b []byte) error {
	if b == nil {
		return w.Null()
	}
	w.bw.WriteByte('$')
	w.bw.WriteString(strconv.Itoa(len(b)))
	w.bw.Write(crlf)
	w.bw.Write(b)
	_, err := w.bw.Write(crlf)
	return err
}

// BulkString writes s as a bulk string reply.
func (w *writer) BulkString(s string) error {
	return w.Bulk([]byte(s))
}

// Array writes an array header; the caller follows with n replies.
func (w *writer) Array(n int) error {
	w.bw.WriteByte('*')
	w.bw.WriteString(strconv.Itoa(n))
	_, err := w.bw.Write(crlf)
	return err
}

// commandName uppercases the first argument without allocating when the
// client already sent it uppercased.
func commandName(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
