package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/l1jgo/companions/internal/data"
	"gopkg.in/yaml.v3"
)

// Manifest identifies a content pack.
type Manifest struct {
	Name        string `yaml:"Name"`
	Author      string `yaml:"Author"`
	Version     string `yaml:"Version"`
	Description string `yaml:"Description"`
	UniqueID    string `yaml:"UniqueID"`
}

// CompanionFile is one decoded companion.json and its fingerprint.
type CompanionFile struct {
	Dir    string
	Model  data.CompanionModel
	Digest Digest
}

// Pack is everything read from one pack directory.
type Pack struct {
	Dir        string
	Manifest   Manifest
	Companions []CompanionFile
	Rings      []data.RingModel
	// Problems are per-file issues that skipped a file but not the pack.
	Problems []error
	// NoRings is set when the pack has no Objects directory.
	NoRings bool
}

func (p *Pack) ID() string { return p.Manifest.UniqueID }

var manifestNames = []string{"manifest.json", "manifest.yaml", "manifest.yml"}

// ErrNoManifest marks a directory that is not a content pack.
var ErrNoManifest = errors.New("no manifest")

// ReadPack reads one pack directory:
//
//	<dir>/manifest.json
//	<dir>/Companions/<name>/companion.json
//	<dir>/Objects/<name>/object.json
func ReadPack(dir string) (*Pack, error) {
	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}
	p := &Pack{Dir: dir, Manifest: m}

	companionDirs, err := subdirs(filepath.Join(dir, "Companions"))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("pack %s: %w", m.UniqueID, err)
	}
	for _, cd := range companionDirs {
		path := filepath.Join(cd, "companion.json")
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			p.Problems = append(p.Problems, fmt.Errorf("pack %s is missing a companion.json under %s", m.UniqueID, filepath.Base(cd)))
			continue
		}
		if err != nil {
			p.Problems = append(p.Problems, fmt.Errorf("read %s: %w", path, err))
			continue
		}
		model, err := data.ParseCompanion(raw)
		if err != nil {
			p.Problems = append(p.Problems, fmt.Errorf("%s: %w", path, err))
			continue
		}
		model.Owner = m.UniqueID
		if model.Name == "" {
			model.Name = filepath.Base(cd)
		}
		p.Companions = append(p.Companions, CompanionFile{Dir: cd, Model: model, Digest: digestOf(raw)})
	}

	ringDirs, err := subdirs(filepath.Join(dir, "Objects"))
	if os.IsNotExist(err) {
		p.NoRings = true
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", m.UniqueID, err)
	}
	for _, rd := range ringDirs {
		path := filepath.Join(rd, "object.json")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			p.Problems = append(p.Problems, fmt.Errorf("pack %s is missing a object.json under %s", m.UniqueID, filepath.Base(rd)))
			continue
		}
		ring, err := data.LoadRing(path)
		if err != nil {
			p.Problems = append(p.Problems, err)
			continue
		}
		ring.Owner = m.UniqueID
		p.Rings = append(p.Rings, ring)
	}
	return p, nil
}

func readManifest(dir string) (Manifest, error) {
	for _, name := range manifestNames {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return Manifest{}, fmt.Errorf("read manifest: %w", err)
		}
		var m Manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return Manifest{}, fmt.Errorf("parse %s: %w", filepath.Join(dir, name), err)
		}
		if m.UniqueID == "" {
			return Manifest{}, fmt.Errorf("%s: missing UniqueID", filepath.Join(dir, name))
		}
		return m, nil
	}
	return Manifest{}, fmt.Errorf("%s: %w", dir, ErrNoManifest)
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}
