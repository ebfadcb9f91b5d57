package util

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Tar packs the directory tree below `root` as a gzipped tar archive
// into `w`. Only regular files are packed; their modes and modification
// times survive the round trip. The name of the archive is set to
// `archiveName`.
func Tar(root, archiveName string, w io.Writer) error {
	gzw := gzip.NewWriter(w)
	gzw.Name = archiveName
	gzw.ModTime = time.Now()

	tw := tar.NewWriter(gzw)
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		return tarFile(tw, path, filepath.ToSlash(rel), info)
	})

	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}

	return gzw.Close()
}

func tarFile(tw *tar.Writer, path, name string, info os.FileInfo) error {
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}

	hdr.Name = name
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	fd, err := os.Open(path) // #nosec
	if err != nil {
		return err
	}

	defer Closer(fd)

	_, err = io.Copy(tw, fd)
	return err
}

// Untar unpacks an archive produced by Tar below `root`. The directory
// must not exist yet, Untar insists on creating it itself.
func Untar(r io.Reader, root string) error {
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		return fmt.Errorf("untar: %s exists or is not readable: %v", root, err)
	}

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return err
	}

	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}

		if err := untarFile(tr, hdr, root); err != nil {
			return err
		}
	}

	return gzr.Close()
}

func untarFile(tr *tar.Reader, hdr *tar.Header, root string) error {
	if strings.Contains(hdr.Name, "..") {
		return fmt.Errorf("untar: entry would escape %s: %s", root, hdr.Name)
	}

	fullPath := filepath.Join(root, hdr.Name)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0700); err != nil {
		return err
	}

	fd, err := os.OpenFile(
		fullPath,
		os.O_CREATE|os.O_WRONLY|os.O_TRUNC,
		hdr.FileInfo().Mode(),
	) // #nosec
	if err != nil {
		return err
	}

	if _, err := io.Copy(fd, tr); err != nil {
		fd.Close()
		return err
	}

	return fd.Close()
}
