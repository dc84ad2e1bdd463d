package mtlxgltf

import (
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/flywave/go-mtlxgltf/mtlx"
)

const (
	assignLookName = "look"
	assignPrefix   = "MA_"
	geomSeparator  = ", "
)

// buildAssignments adds a look binding every material to the instance paths of
// the meshes whose first primitive uses it. materials maps a glTF material
// index to the name of its material node. Paths are merged per material in the
// order the scene walk first meets them.
func buildAssignments(gdoc *gltf.Document, doc *mtlx.Document, materials map[uint32]string, logger *zap.Logger) *mtlx.Look {
	scene := flattenScene(gdoc, logger)

	var order []string
	paths := make(map[string][]string)
	for _, rec := range scene.Order {
		name, ok := firstMaterial(gdoc, rec.Mesh, materials)
		if !ok {
			continue
		}
		if _, seen := paths[name]; !seen {
			order = append(order, name)
		}
		paths[name] = append(paths[name], rec.Path)
	}

	look := doc.AddLook(assignLookName)
	for _, name := range order {
		ma := look.AddMaterialAssign(assignPrefix+name, name)
		ma.Geom = strings.Join(paths[name], geomSeparator)
		logger.Debug("material assign", zap.String("material", name), zap.Int("paths", len(paths[name])))
	}
	return look
}

func firstMaterial(gdoc *gltf.Document, mesh uint32, materials map[uint32]string) (string, bool) {
	m := gdoc.Meshes[mesh]
	if len(m.Primitives) == 0 || m.Primitives[0] == nil || m.Primitives[0].Material == nil {
		return "", false
	}
	name, ok := materials[*m.Primitives[0].Material]
	return name, ok
}
