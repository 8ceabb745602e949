package dtg

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// MaxCompactSize is the largest decompressed credential ParseCompact accepts.
const MaxCompactSize = 1 << 20

// Compact returns the JSON form of the credential gzip compressed and
// encoded as unpadded base64url, for QR codes and URLs. The proof, if any,
// is kept.
func (c *Credential) Compact() (string, error) {
	data, err := c.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal credential: %w", err)
	}

	compressed, err := compress(data)
	if err != nil {
		return "", fmt.Errorf("failed to compress credential: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(compressed), nil
}

// ParseCompact decodes a credential produced by Compact and validates it as
// Parse does. Input inflating beyond MaxCompactSize is rejected with
// ErrMalformedCredential.
func ParseCompact(value string) (*Credential, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64url: %w", ErrMalformedCredential, err)
	}

	data, err := decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid gzip data: %w", ErrMalformedCredential, err)
	}

	return Parse(data)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	data, err = io.ReadAll(io.LimitReader(gz, MaxCompactSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxCompactSize {
		return nil, fmt.Errorf("decompressed size exceeds %d bytes", MaxCompactSize)
	}

	return data, nil
}
