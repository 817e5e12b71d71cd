package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
)

// utf8BOM is the byte order mark Excel expects at the front of a CSV body.
// The hash is always computed on the BOM-stripped payload so the mark never
// affects verification.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Artifact is one exported file: the body handed to the client and the hash
// of its canonical payload, exposed separately so the client can verify the
// content independent of any BOM the body carries.
type Artifact struct {
	Name   string
	Body   []byte
	SHA256 string
}

// Option is a functional option for the export Service
type Option func(*Service)

// WithBOM prepends a UTF-8 BOM to artifact bodies for spreadsheet
// compatibility. The hash is unaffected.
func WithBOM(enabled bool) Option {
	return func(s *Service) {
		s.withBOM = enabled
	}
}

// Service renders canonical row data to CSV artifacts with verifiable
// hashes. Two exports of the same rows always produce byte-identical
// canonical payloads and therefore identical hashes.
type Service struct {
	withBOM bool
}

// NewService creates a new export Service
func NewService(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Build renders the header and rows to a CSV artifact. The canonical payload
// uses LF line endings and no BOM; the hash is SHA-256 over exactly those
// bytes.
func (s *Service) Build(name string, header []string, rows [][]string) (*Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row has %d fields, header has %d", len(row), len(header))
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	canonical := Canonicalize(buf.Bytes())
	body := canonical
	if s.withBOM {
		body = append(append(make([]byte, 0, len(utf8BOM)+len(canonical)), utf8BOM...), canonical...)
	}

	return &Artifact{
		Name:   name,
		Body:   body,
		SHA256: HashHex(canonical),
	}, nil
}

// Canonicalize produces the hashed payload: a leading UTF-8 BOM is stripped
// and CRLF and bare CR line endings are normalized to LF
func Canonicalize(b []byte) []byte {
	b = bytes.TrimPrefix(b, utf8BOM)
	b = bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n"))
	b = bytes.ReplaceAll(b, []byte("\r"), []byte("\n"))
	return b
}

// HashHex returns the lowercase hex SHA-256 of the payload, 64 characters
func HashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the hash of a body (stripping any BOM and normalizing
// line endings first) and compares it to the expected hash
func Verify(body []byte, expectedHash string) bool {
	return HashHex(Canonicalize(body)) == expectedHash
}
