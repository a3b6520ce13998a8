package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// Supported literal input encodings.
const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

// EncodeInput converts a literal input string into the bytes pushed onto the
// input queue.
//
// utf8 passes the string's bytes through unchanged. latin1 NFC-normalizes the
// text and maps each character to its single ISO-8859-1 byte, failing on
// characters outside that repertoire rather than truncating them.
func EncodeInput(s, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf-8":
		return []byte(s), nil
	case EncodingLatin1, "iso-8859-1":
		b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(norm.NFC.String(s)))
		if err != nil {
			return nil, fmt.Errorf("encode input as latin1: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown input encoding %q (want %s or %s)", encoding, EncodingUTF8, EncodingLatin1)
	}
}

// liveInput forwards bytes from a reader to the driving loop.
//
// A single goroutine owns the reader. Chunks arrive on ch; ch is closed when
// the reader returns an error, which is then available from err.
type liveInput struct {
	ch  chan []byte
	err error
}

func startLiveInput(ctx context.Context, r io.Reader) *liveInput {
	li := &liveInput{ch: make(chan []byte, 16)}
	go func() {
		defer close(li.ch)
		buf := make([]byte, 512)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				select {
				case li.ch <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					li.err = err
				}
				return
			}
		}
	}()
	return li
}
