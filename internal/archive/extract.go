package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/klauspost/compress/zstd"
	"github.com/runloop/rl-cli/internal/domain"
)

// Extract unpacks the archive at archivePath into targetDir,
// dispatching on the archive kind detected from the name. The caller
// owns targetDir cleanup on failure; Extract itself guarantees it
// leaves no temporary files behind.
func Extract(archivePath, targetDir string) error {
	return ExtractAs(archivePath, DetectKind(archivePath), targetDir)
}

// ExtractAs unpacks with an explicitly chosen kind, for callers that
// resolved the format by content sniffing rather than by name.
func ExtractAs(archivePath string, kind Kind, targetDir string) error {
	switch kind {
	case KindZip:
		return extractZip(archivePath, targetDir)
	case KindTar:
		return extractTarFile(archivePath, targetDir)
	case KindTarGz:
		return extractTarGz(archivePath, targetDir)
	case KindTarZst:
		return extractTarZst(archivePath, targetDir)
	case KindZst:
		return extractZst(archivePath, targetDir)
	default:
		return domain.Errorf(domain.ErrUnsupportedArchive, "%s", archivePath)
	}
}

// safeJoin joins a member name onto the target directory, rejecting
// any member that would resolve outside it.
func safeJoin(targetDir, member string) (string, error) {
	cleaned := filepath.Clean(member)
	if filepath.IsAbs(cleaned) {
		return "", domain.Errorf(domain.ErrPathTraversal, "absolute member path %q", member)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", domain.Errorf(domain.ErrPathTraversal, "member path %q escapes archive root", member)
	}

	dest, err := securejoin.SecureJoin(targetDir, member)
	if err != nil {
		return "", domain.Errorf(domain.ErrPathTraversal, "invalid member path %q: %v", member, err)
	}

	// Use the path separator to prevent /tmp/out matching /tmp/out2
	if dest != targetDir && !strings.HasPrefix(dest, targetDir+string(filepath.Separator)) {
		return "", domain.Errorf(domain.ErrPathTraversal, "member path %q escapes %q", member, targetDir)
	}

	return dest, nil
}

func extractZip(archivePath, targetDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to open zip %s: %v", archivePath, err)
	}
	// On ErrInsecurePath the reader is still valid; safeJoin rejects
	// the offending members below.
	defer r.Close()

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}

	for _, f := range r.File {
		dest, err := safeJoin(targetDir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, f.Mode().Perm()|0700); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}

		if err := writeZipMember(f, dest); err != nil {
			return err
		}
	}

	return nil
}

func writeZipMember(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to read zip member %s: %v", f.Name, err)
	}
	defer rc.Close()

	return writeFileFrom(rc, dest, f.Mode().Perm())
}

func extractTarFile(archivePath, targetDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to open archive %s: %v", archivePath, err)
	}
	defer f.Close()

	return extractTarStream(f, targetDir)
}

func extractTarGz(archivePath, targetDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to open archive %s: %v", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to read gzip stream from %s: %v", archivePath, err)
	}
	defer gz.Close()

	return extractTarStream(gz, targetDir)
}

// extractTarZst decompresses the zstd stream to a temporary sibling
// .tar file first, then extracts that. The decompression is streamed,
// never buffered in memory, and the temp file is removed whether or
// not extraction succeeds.
func extractTarZst(archivePath, targetDir string) error {
	if !SniffZstd(archivePath) {
		return domain.Errorf(domain.ErrNotZstd, "%s", archivePath)
	}

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), filepath.Base(archivePath)+".*.tar")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := decompressZstd(archivePath, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return extractTarFile(tmpPath, targetDir)
}

// extractZst decompresses a single-file zstd archive to
// targetDir/<basename without .zst>.
func extractZst(archivePath, targetDir string) error {
	if !SniffZstd(archivePath) {
		return domain.Errorf(domain.ErrNotZstd, "%s", archivePath)
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}

	base := filepath.Base(archivePath)
	dest := filepath.Join(targetDir, strings.TrimSuffix(base, filepath.Ext(base)))

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	if err := decompressZstd(archivePath, out); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	return out.Close()
}

// decompressZstd streams the zstd frame at srcPath into w
func decompressZstd(srcPath string, w io.Writer) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to open archive %s: %v", srcPath, err)
	}
	defer src.Close()

	dec, err := zstd.NewReader(src)
	if err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "failed to initialize zstd decoder: %v", err)
	}
	defer dec.Close()

	if _, err := io.Copy(w, dec); err != nil {
		return domain.Errorf(domain.ErrDownloadFailed, "zstd decompression of %s failed: %v", srcPath, err)
	}
	return nil
}

// extractTarStream walks a tar stream, writing members under
// targetDir. Any member that resolves outside targetDir aborts the
// whole extraction with ErrPathTraversal.
func extractTarStream(r io.Reader, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return err
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return domain.Errorf(domain.ErrPathTraversal, "member path %q escapes archive root", hdr.Name)
		}
		if err != nil {
			return domain.Errorf(domain.ErrDownloadFailed, "failed to read tar stream: %v", err)
		}

		dest, err := safeJoin(targetDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, os.FileMode(hdr.Mode).Perm()|0700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return err
			}
			if err := writeFileFrom(tr, dest, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink, tar.TypeLink:
			// Link targets can point anywhere; resolve them relative to
			// the member's directory and require the result to stay
			// inside the extraction root.
			target := hdr.Linkname
			if !filepath.IsAbs(target) && hdr.Typeflag == tar.TypeSymlink {
				target = filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)
			}
			if _, err := safeJoin(targetDir, target); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
				return err
			}
			if hdr.Typeflag == tar.TypeSymlink {
				if err := os.Symlink(hdr.Linkname, dest); err != nil {
					return err
				}
			} else {
				linkSrc, err := safeJoin(targetDir, hdr.Linkname)
				if err != nil {
					return err
				}
				if err := os.Link(linkSrc, dest); err != nil {
					return err
				}
			}
		default:
			// Devices, FIFOs and other special members are skipped
		}
	}
}

// writeFileFrom copies r into a freshly created file at dest
func writeFileFrom(r io.Reader, dest string, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return domain.Errorf(domain.ErrDownloadFailed, "failed to write %s: %v", dest, err)
	}
	return out.Close()
}
