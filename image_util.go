package mtlxgltf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/tiff"
	mst "github.com/flywave/go-mst"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"golang.org/x/image/bmp"
)

var errImageFormat = errors.New("mtlxgltf: unknown image format")

// convertTex decodes an encoded image into a zlib compressed RGBA texture.
func convertTex(data []byte, texId int) (*mst.Texture, error) {
	ft, err := imageFormat(data)
	if err != nil {
		return nil, err
	}
	img, err := readImage(bytes.NewReader(data), ft)
	if err != nil {
		return nil, err
	}
	bd := img.Bounds()
	buf := make([]byte, 0, bd.Dx()*bd.Dy()*4)
	for y := bd.Min.Y; y < bd.Max.Y; y++ {
		for x := bd.Min.X; x < bd.Max.X; x++ {
			r, g, b, a := color.RGBAModel.Convert(img.At(x, y)).RGBA()
			buf = append(buf, byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8))
		}
	}

	t := &mst.Texture{}
	t.Id = int32(texId)
	t.Format = mst.TEXTURE_FORMAT_RGBA
	t.Size = [2]uint64{uint64(bd.Dx()), uint64(bd.Dy())}
	t.Compressed = mst.TEXTURE_COMPRESSED_ZLIB
	t.Data = mst.CompressImage(buf)
	return t, nil
}

// imageFormat sniffs the encoding of data ("png", "jpeg", "bmp", ...).
func imageFormat(data []byte) (string, error) {
	_, ft, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errImageFormat, err)
	}
	return ft, nil
}

func readImage(rd io.Reader, ft string) (image.Image, error) {
	switch ft {
	case "jpeg", "jpg":
		return jpeg.Decode(rd)
	case "png":
		return png.Decode(rd)
	case "gif":
		return gif.Decode(rd)
	case "bmp":
		return bmp.Decode(rd)
	case "tif", "tiff":
		return tiff.Decode(rd)
	default:
		return nil, errImageFormat
	}
}

func imageExt(ft, mime string) string {
	switch {
	case ft == "jpeg" || mime == "image/jpeg" || mime == "image/jpg":
		return ".jpg"
	case ft != "":
		return "." + ft
	case strings.HasPrefix(mime, "image/"):
		return "." + strings.TrimPrefix(mime, "image/")
	}
	return ".bin"
}

// loadImageData returns the encoded bytes of an image held in a buffer view,
// a data URI or a file relative to baseDir.
func loadImageData(doc *gltf.Document, img *gltf.Image, baseDir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		if int(*img.BufferView) >= len(doc.BufferViews) {
			return nil, fmt.Errorf("mtlxgltf: image %q: buffer view %d out of range", img.Name, *img.BufferView)
		}
		return modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		p, err := url.PathUnescape(img.URI)
		if err != nil {
			p = img.URI
		}
		return os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(p)))
	}
	return nil, fmt.Errorf("mtlxgltf: image %q has no data", img.Name)
}

// extractImage writes an image stored inside the asset to dir and returns the
// written path. The file is named after the image, or image_<index>.
func extractImage(doc *gltf.Document, idx uint32, dir string) (string, error) {
	img := doc.Images[idx]
	data, err := loadImageData(doc, img, "")
	if err != nil {
		return "", err
	}
	ft, _ := imageFormat(data)
	name := img.Name
	if name == "" {
		name = fmt.Sprintf("image_%d", idx)
	}
	name = strings.TrimSuffix(filepath.Base(filepath.FromSlash(name)), filepath.Ext(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+imageExt(ft, img.MimeType))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return filepath.ToSlash(path), nil
}
