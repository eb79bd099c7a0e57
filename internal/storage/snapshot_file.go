package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"

	"tensordep/internal/model"
)

// Compression selects the container of a snapshot file.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionLZ4  Compression = "lz4"
	CompressionXZ   Compression = "xz"
)

var (
	lz4Magic = []byte{0x04, 0x22, 0x4d, 0x18}
	xzMagic  = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

var ErrUnknownCompression = errors.New("unknown snapshot compression")

// CompressionForPath picks the container from the file extension; paths
// without a known extension get lz4.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return CompressionNone
	case ".xz":
		return CompressionXZ
	default:
		return CompressionLZ4
	}
}

func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(name)); c {
	case CompressionNone, CompressionLZ4, CompressionXZ:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCompression, name)
}

// WriteBundle encodes b into w through the chosen container.
func WriteBundle(w io.Writer, b model.Bundle, c Compression) error {
	payload, err := EncodeBundle(b)
	if err != nil {
		return err
	}
	switch c {
	case CompressionNone:
		_, err = w.Write(payload)
		return err
	case CompressionLZ4:
		zw := lz4.NewWriter(w)
		if _, err := zw.Write(payload); err != nil {
			return err
		}
		return zw.Close()
	case CompressionXZ:
		zw, err := xz.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := zw.Write(payload); err != nil {
			return err
		}
		return zw.Close()
	}
	return fmt.Errorf("%w: %q", ErrUnknownCompression, c)
}

// ReadBundle sniffs the container from its magic bytes, so files may be
// renamed freely.
func ReadBundle(r io.Reader) (model.Bundle, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(xzMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return model.Bundle{}, err
	}

	var body io.Reader = br
	switch {
	case bytes.HasPrefix(head, lz4Magic):
		body = lz4.NewReader(br)
	case bytes.HasPrefix(head, xzMagic):
		zr, err := xz.NewReader(br)
		if err != nil {
			return model.Bundle{}, err
		}
		body = zr
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		return model.Bundle{}, fmt.Errorf("read snapshot: %w", err)
	}
	return DecodeBundle(payload)
}

// SaveSnapshotFile writes b to path atomically and returns the file size.
func SaveSnapshotFile(path string, b model.Bundle, c Compression) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())

	if err := WriteBundle(tmp, b, c); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	info, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func LoadSnapshotFile(path string) (model.Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Bundle{}, err
	}
	defer f.Close()

	b, err := ReadBundle(f)
	if err != nil {
		return model.Bundle{}, fmt.Errorf("load %s: %w", path, err)
	}
	return b, nil
}
