package archive

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// Kind identifies the archive format of a file
type Kind int

const (
	KindNone Kind = iota
	KindZip
	KindTar
	KindTarGz
	KindTarZst
	KindZst
)

// zstdMagic is the zstd frame magic number (little-endian 0xFD2FB528)
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// zipMagic is the zip local file header signature
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// DetectKind classifies a path by its (lowercased) name. Multi-part
// suffixes are checked before single ones so .tar.zst never reads as
// plain .zst.
func DetectKind(path string) Kind {
	name := strings.ToLower(path)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return KindZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return KindTarGz
	case strings.HasSuffix(name, ".tar.zst"):
		return KindTarZst
	case strings.HasSuffix(name, ".zst"):
		return KindZst
	case strings.HasSuffix(name, ".tar"):
		return KindTar
	default:
		return KindNone
	}
}

// IsArchiveName reports whether the path names a supported archive
// for download-and-extract purposes.
func IsArchiveName(path string) bool {
	name := strings.ToLower(path)
	for _, suffix := range []string{".zip", ".tar.gz", ".tgz", ".zst", ".tar.zst"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// SniffZstd reports whether the file starts with the zstd frame magic
// number. Any read error reads as "not zstd" rather than failing.
func SniffZstd(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, len(zstdMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, zstdMagic)
}

// SniffKind classifies a file by content alone: zip signature, zstd
// magic, or a valid tar header. A zstd frame reads as KindZst; a
// compressed tarball cannot be told apart from a plain zstd file
// without decompressing it.
func SniffKind(path string) Kind {
	f, err := os.Open(path)
	if err != nil {
		return KindNone
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return KindNone
	}
	header = header[:n]

	switch {
	case bytes.HasPrefix(header, zipMagic):
		return KindZip
	case bytes.HasPrefix(header, zstdMagic):
		return KindZst
	case isTarHeader(header):
		return KindTar
	default:
		return KindNone
	}
}

// IsExtractable reports whether content sniffing recognizes the file
// as a zip, tar, or zstd stream, independent of its name. Used to
// decide whether to attempt extraction when naming is ambiguous.
func IsExtractable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 512)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false
	}
	header = header[:n]

	if bytes.HasPrefix(header, zipMagic) || bytes.HasPrefix(header, zstdMagic) {
		return true
	}
	return isTarHeader(header)
}

// isTarHeader validates a 512-byte tar header block, either by the
// ustar magic at offset 257 or by the header checksum for pre-POSIX
// archives.
func isTarHeader(block []byte) bool {
	if len(block) < 512 {
		return false
	}

	if bytes.HasPrefix(block[257:], []byte("ustar")) {
		return true
	}

	// Checksum field is bytes 148-155, octal ASCII, computed with the
	// field itself treated as spaces.
	stored := parseOctal(block[148:156])
	if stored < 0 {
		return false
	}

	var sum int64
	for i, b := range block {
		if i >= 148 && i < 156 {
			sum += ' '
		} else {
			sum += int64(b)
		}
	}
	return sum == stored
}

// parseOctal parses a NUL/space-terminated octal field; -1 if invalid
func parseOctal(field []byte) int64 {
	s := strings.Trim(string(field), " \x00")
	if s == "" {
		return -1
	}
	var v int64
	for _, c := range s {
		if c < '0' || c > '7' {
			return -1
		}
		v = v*8 + int64(c-'0')
	}
	return v
}
