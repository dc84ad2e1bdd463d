// mtlxgltf converts glTF materials to MaterialX documents and back, and
// flattens glTF meshes into mst containers.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mst "github.com/flywave/go-mst"
	"go.uber.org/zap"

	mtlxgltf "github.com/flywave/go-mtlxgltf"
	"github.com/flywave/go-mtlxgltf/internal/config"
	"github.com/flywave/go-mtlxgltf/internal/logger"
	"github.com/flywave/go-mtlxgltf/mtlx"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "materials", "mat":
		err = cmdMaterials(args)
	case "export":
		err = cmdExport(args)
	case "meshes", "mesh":
		err = cmdMeshes(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mtlxgltf - glTF and MaterialX material bridge

Usage:
  mtlxgltf <command> [options] <input> [output]

Commands:
  materials <in.gltf|glb> [out.mtlx]   Convert glTF materials to a MaterialX document
  export <in.mtlx> <out.gltf|glb>      Write the gltf_pbr shaders of a document as glTF materials
  meshes <in.gltf|glb> [out.mst]       Flatten the scene meshes into an mst container

Options:
  -config <file>   Config file (default ./mtlxgltf.yaml or the user config dir)
  -debug           Enable debug logging
  -flipv           Keep texture coordinates as stored in the asset
  -noassign        Do not generate material assignments
  -full            Add every input of the node definitions
  -images <dir>    Extract embedded images into dir

Examples:
  mtlxgltf materials -images textures helmet.glb helmet.mtlx
  mtlxgltf export helmet.mtlx helmet_materials.gltf
  mtlxgltf meshes -flipv helmet.glb`)
}

// setup parses the command flags, loads the configuration and starts the
// logger. It returns the positional arguments.
func setup(name string, args []string) (*config.Config, []string, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, nil, err
	}
	return cfg, fs.Args(), nil
}

func outputPath(in, ext string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + "." + ext
}

func cmdMaterials(args []string) error {
	cfg, rest, err := setup("materials", args)
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		return fmt.Errorf("usage: mtlxgltf materials <in.gltf|glb> [out.mtlx]")
	}
	in := rest[0]
	out := outputPath(in, mtlxgltf.MTLX)
	if len(rest) > 1 {
		out = rest[1]
	}

	loader := &mtlxgltf.MaterialLoader{
		GenerateAssignments:     cfg.Material.GenerateAssignments,
		GenerateFullDefinitions: cfg.Material.FullDefinitions,
		ImageDir:                cfg.ImageDir(),
		Logger:                  logger.Named("materials"),
	}
	doc, err := loader.Load(in)
	if err != nil {
		return err
	}
	if err := doc.WriteFile(out); err != nil {
		return err
	}
	logger.Log.Info("wrote materials", zap.String("file", out),
		zap.Int("materials", len(doc.MaterialNodes())), zap.Int("looks", len(doc.Looks())))
	return nil
}

func cmdExport(args []string) error {
	_, rest, err := setup("export", args)
	if err != nil {
		return err
	}
	if len(rest) < 2 {
		return fmt.Errorf("usage: mtlxgltf export <in.mtlx> <out.gltf|glb>")
	}
	doc, err := mtlx.ReadFile(rest[0])
	if err != nil {
		return err
	}
	loader := &mtlxgltf.MaterialLoader{Logger: logger.Named("export")}
	if err := loader.Save(doc, rest[1]); err != nil {
		return err
	}
	logger.Log.Info("wrote glTF materials", zap.String("file", rest[1]))
	return nil
}

func cmdMeshes(args []string) error {
	cfg, rest, err := setup("meshes", args)
	if err != nil {
		return err
	}
	if len(rest) < 1 {
		return fmt.Errorf("usage: mtlxgltf meshes <in.gltf|glb> [out.mst]")
	}
	in := rest[0]
	out := outputPath(in, mtlxgltf.MST)
	if len(rest) > 1 {
		out = rest[1]
	}

	conv := &mtlxgltf.GltfToMst{
		FlipTexcoordV: cfg.Mesh.FlipTexcoordV,
		SkipTangents:  !cfg.Mesh.GenerateTangents,
		Logger:        logger.Named("meshes"),
	}
	mh, bbx, err := conv.Convert(in)
	if err != nil {
		return err
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	mst.MeshMarshal(f, mh)
	if err := f.Close(); err != nil {
		return err
	}
	logger.Log.Info("wrote meshes", zap.String("file", out), zap.Int("nodes", len(mh.Nodes)),
		zap.Float64s("bbox", bbx[:]))
	return nil
}
