package mtlxgltf

import (
	"fmt"
	"strings"

	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/flywave/go-mtlxgltf/mtlx"
)

// InstanceRecord is one placement of a mesh in the scene: its accumulated
// world transform and the slash separated path of node names leading to it.
type InstanceRecord struct {
	Mesh   uint32
	Matrix dmat.T
	Path   string
}

// flatScene is the result of one scene walk. Instances are keyed by mesh
// index, Order keeps every record in depth-first visiting order.
type flatScene struct {
	Instances map[uint32][]InstanceRecord
	Order     []InstanceRecord
	MeshNames map[uint32]string

	meshCount int
}

// sceneFlattener walks the node hierarchy of every scene. The default name
// counters live on the flattener, so names are unique per walk and never
// shared between concurrent loads.
type sceneFlattener struct {
	doc    *gltf.Document
	logger *zap.Logger

	nodeCount int
	nodeNames map[uint32]string
	path      []string
	onPath    map[uint32]bool
	used      map[string]bool
	scene     *flatScene
}

func flattenScene(doc *gltf.Document, logger *zap.Logger) *flatScene {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &sceneFlattener{
		doc:       doc,
		logger:    logger,
		nodeNames: make(map[uint32]string),
		onPath:    make(map[uint32]bool),
		used:      make(map[string]bool),
		scene: &flatScene{
			Instances: make(map[uint32][]InstanceRecord),
			MeshNames: make(map[uint32]string),
		},
	}
	for _, sc := range doc.Scenes {
		if sc == nil {
			continue
		}
		for _, n := range sc.Nodes {
			f.visit(n, &dmat.Ident)
		}
	}
	return f.scene
}

func (f *sceneFlattener) nodeName(idx uint32) string {
	if name, ok := f.nodeNames[idx]; ok {
		return name
	}
	name := f.doc.Nodes[idx].Name
	if name == "" {
		name = fmt.Sprintf("NODE_%d", f.nodeCount)
		f.nodeCount++
	}
	name = mtlx.CreateValidName(name)
	f.nodeNames[idx] = name
	return name
}

func (f *sceneFlattener) meshName(idx uint32) string {
	if name, ok := f.scene.MeshNames[idx]; ok {
		return name
	}
	return f.scene.nameMesh(f.doc, idx)
}

func (s *flatScene) nameMesh(doc *gltf.Document, idx uint32) string {
	name := doc.Meshes[idx].Name
	if name == "" {
		name = fmt.Sprintf("MESH_%d", s.meshCount)
		s.meshCount++
	}
	name = mtlx.CreateValidName(name)
	s.MeshNames[idx] = name
	return name
}

func (f *sceneFlattener) uniquePath(p string) string {
	if !f.used[p] {
		f.used[p] = true
		return p
	}
	for k := 1; ; k++ {
		c := fmt.Sprintf("%s_%d", p, k)
		if !f.used[c] {
			f.used[c] = true
			return c
		}
	}
}

func (f *sceneFlattener) visit(idx uint32, parent *dmat.T) {
	if int(idx) >= len(f.doc.Nodes) || f.doc.Nodes[idx] == nil {
		f.logger.Debug("skipping missing node", zap.Uint32("node", idx))
		return
	}
	if f.onPath[idx] {
		f.logger.Debug("skipping node cycle", zap.Uint32("node", idx))
		return
	}
	f.onPath[idx] = true
	defer delete(f.onPath, idx)

	nd := f.doc.Nodes[idx]
	f.path = append(f.path, f.nodeName(idx))
	defer func() { f.path = f.path[:len(f.path)-1] }()

	local := localMatrix(nd)
	world := mulMatrix(parent, &local)

	if nd.Mesh != nil && int(*nd.Mesh) < len(f.doc.Meshes) && f.doc.Meshes[*nd.Mesh] != nil {
		m := *nd.Mesh
		p := "/" + strings.Join(append(f.path[:len(f.path):len(f.path)], f.meshName(m)), "/")
		rec := InstanceRecord{Mesh: m, Matrix: world, Path: f.uniquePath(p)}
		f.scene.Instances[m] = append(f.scene.Instances[m], rec)
		f.scene.Order = append(f.scene.Order, rec)
		f.logger.Debug("mesh instance", zap.Uint32("mesh", m), zap.String("path", rec.Path))
	}

	for _, c := range nd.Children {
		f.visit(c, &world)
	}
}

// meshInstances returns the placements of a mesh. A mesh no node references
// gets a single identity placement whose path is the mesh name.
func (s *flatScene) meshInstances(doc *gltf.Document, idx uint32) []InstanceRecord {
	if recs := s.Instances[idx]; len(recs) > 0 {
		return recs
	}
	name, ok := s.MeshNames[idx]
	if !ok {
		name = s.nameMesh(doc, idx)
	}
	return []InstanceRecord{{Mesh: idx, Matrix: dmat.Ident, Path: name}}
}
