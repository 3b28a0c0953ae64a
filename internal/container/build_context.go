// SPDX-License-Identifier: MPL-2.0

package container

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// BuildContextToolDir is the build-context directory holding the tool distribution.
const BuildContextToolDir = "tool"

// NewBuildContext converts a zip distribution into an in-memory tar build
// context. Every zip entry appears under tool/ with its unix mode and
// modification time, followed by the rendered Dockerfile.
func NewBuildContext(distZip string, def *ImageDefinition) (*bytes.Buffer, error) {
	zr, err := zip.OpenReader(distZip)
	if err != nil {
		return nil, fmt.Errorf("opening distribution %s: %w", distZip, err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeDir,
		Name:     BuildContextToolDir + "/",
		Mode:     0o755,
		ModTime:  time.Now(),
	}); err != nil {
		return nil, err
	}

	for _, f := range zr.File {
		if err := addZipEntry(tw, f); err != nil {
			return nil, fmt.Errorf("adding %s to build context: %w", f.Name, err)
		}
	}

	dockerfile := []byte(def.Render())
	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     DockerfileName,
		Mode:     0o644,
		Size:     int64(len(dockerfile)),
		ModTime:  time.Now(),
	}); err != nil {
		return nil, err
	}
	if _, err := tw.Write(dockerfile); err != nil {
		return nil, err
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}

func addZipEntry(tw *tar.Writer, f *zip.File) error {
	name := path.Clean(strings.TrimPrefix(f.Name, "/"))
	if name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return nil
	}
	info := f.FileInfo()
	hdr := &tar.Header{
		Name:    path.Join(BuildContextToolDir, name),
		Mode:    int64(info.Mode().Perm()),
		ModTime: f.Modified,
	}
	if info.IsDir() {
		hdr.Typeflag = tar.TypeDir
		hdr.Name += "/"
		if hdr.Mode == 0 {
			hdr.Mode = 0o755
		}
		return tw.WriteHeader(hdr)
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	hdr.Typeflag = tar.TypeReg
	hdr.Size = int64(f.UncompressedSize64)
	if hdr.Mode == 0 {
		hdr.Mode = 0o644
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(tw, rc)
	return err
}
