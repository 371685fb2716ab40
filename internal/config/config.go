// Package config reads and writes the optional project manifest,
// generalizing tawago's main.go "Tawa Module Information" YAML
// sidecar (a tawaModule{Package string} struct marshaled with
// gopkg.in/yaml.v2) into nanoc's build settings.
package config

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// ManifestFile is the conventional name nanoc looks for in the
// current directory, mirroring tawago's "Tawa Module Information".
const ManifestFile = "nanoc.yaml"

// Manifest is the optional project manifest written by `nanoc init`
// and read by `nanoc build` when no explicit flags override it.
type Manifest struct {
	Package  string `yaml:"package"`
	Entry    string `yaml:"entry"`
	Output   string `yaml:"output"`
	Optimize bool   `yaml:"optimize"`
}

// Default returns the manifest `nanoc init` writes for a new package
// named pkg.
func Default(pkg string) Manifest {
	return Manifest{
		Package:  pkg,
		Entry:    "main.nc",
		Output:   pkg + ".s",
		Optimize: true,
	}
}

// Load reads and parses path. `nanoc build` treats a missing or
// unreadable file as "no manifest" and falls back to its own defaults,
// not an error.
func Load(path string) (Manifest, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Write marshals m to path.
func Write(path string, m Manifest) error {
	out, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(path, out, 0o644)
}
