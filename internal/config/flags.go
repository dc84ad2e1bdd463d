package config

import "flag"

// Flags are the command line overrides of a Config.
type Flags struct {
	Config   string
	Debug    bool
	FlipV    bool
	NoAssign bool
	Full     bool
	Images   string
}

// RegisterFlags defines the override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.FlipV, "flipv", false, "Keep texture coordinates as stored in the asset")
	fs.BoolVar(&f.NoAssign, "noassign", false, "Do not generate material assignments")
	fs.BoolVar(&f.Full, "full", false, "Add every input of the node definitions")
	fs.StringVar(&f.Images, "images", "", "Extract embedded images into this directory")
	return f
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.FlipV {
		cfg.Mesh.FlipTexcoordV = true
	}
	if f.NoAssign {
		cfg.Material.GenerateAssignments = false
	}
	if f.Full {
		cfg.Material.FullDefinitions = true
	}
	if f.Images != "" {
		cfg.Material.ExtractImages = true
		cfg.Material.ImageDir = f.Images
	}
}
