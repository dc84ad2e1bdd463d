package mtlxgltf

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	mst "github.com/flywave/go-mst"
)

const (
	GLTF = "gltf"
	GLB  = "glb"
	MTLX = "mtlx"
	MST  = "mst"
)

var (
	ErrUnsupportedFormat = errors.New("mtlxgltf: unsupported file format")
	ErrNoDocument        = errors.New("mtlxgltf: no document to export")
	ErrNoPBRShaders      = errors.New("mtlxgltf: no gltf_pbr shader in document")
)

type FormatConvert interface {
	Convert(path string) (*mst.Mesh, *[6]float64, error)
}

func FormatFactory(format string) FormatConvert {
	switch strings.ToLower(format) {
	case GLTF, GLB:
		return &GltfToMst{}
	}
	return nil
}

// FileFormat returns the lower-cased extension of path without the dot.
func FileFormat(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func checkFormat(path string, formats ...string) error {
	ext := FileFormat(path)
	for _, f := range formats {
		if ext == f {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}
