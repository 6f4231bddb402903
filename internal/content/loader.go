package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/data"
	"go.uber.org/zap"
)

// Stats summarizes one load or reload pass.
type Stats struct {
	Packs    int
	Profiles int // registered or hot-swapped
	Rejected int
	Rings    int
}

func (s *Stats) add(o Stats) {
	s.Packs += o.Packs
	s.Profiles += o.Profiles
	s.Rejected += o.Rejected
	s.Rings += o.Rings
}

// Loader installs content packs into the companion registry and the ring
// table, and re-installs changed files on reload. It must be called from the
// frame loop goroutine.
type Loader struct {
	dir   string
	reg   *companion.Registry
	rings *data.RingTable
	log   *zap.Logger

	digests map[companion.ProfileKey]Digest
}

func NewLoader(dir string, reg *companion.Registry, rings *data.RingTable, log *zap.Logger) *Loader {
	return &Loader{
		dir:     dir,
		reg:     reg,
		rings:   rings,
		log:     log,
		digests: make(map[companion.ProfileKey]Digest),
	}
}

// LoadAll reads every pack directory under the packs dir. A directory without
// a manifest is skipped with a warning; a broken pack does not stop the rest.
func (l *Loader) LoadAll() (Stats, error) {
	dirs, err := subdirs(l.dir)
	if err != nil {
		return Stats{}, fmt.Errorf("list packs in %s: %w", l.dir, err)
	}
	var total Stats
	for _, dir := range dirs {
		p, err := ReadPack(dir)
		if err != nil {
			l.log.Warn("content pack skipped", zap.String("dir", dir), zap.Error(err))
			continue
		}
		l.log.Debug("loading companions from pack",
			zap.String("pack", p.Manifest.Name),
			zap.String("version", p.Manifest.Version),
			zap.String("author", p.Manifest.Author),
		)
		total.add(l.install(p, false))
	}
	return total, nil
}

// Reload re-reads the pack that contains path and re-registers only the
// companions whose file changed. Live companions pick the new profile up
// immediately.
func (l *Loader) Reload(path string) (string, Stats, error) {
	dir, ok := l.packDirOf(path)
	if !ok {
		return "", Stats{}, fmt.Errorf("%s is not inside %s", path, l.dir)
	}
	p, err := ReadPack(dir)
	if err != nil {
		return "", Stats{}, fmt.Errorf("reload %s: %w", dir, err)
	}
	return p.ID(), l.install(p, true), nil
}

func (l *Loader) packDirOf(path string) (string, bool) {
	rel, err := filepath.Rel(l.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
	return filepath.Join(l.dir, first), true
}

func (l *Loader) install(p *Pack, onlyChanged bool) Stats {
	st := Stats{Packs: 1}
	id := p.ID()

	for _, err := range p.Problems {
		l.log.Warn("content file skipped", zap.String("pack", id), zap.Error(err))
	}

	seen := make(map[string]bool, len(p.Companions))
	for _, cf := range p.Companions {
		key := companion.ProfileKey{Owner: id, Name: cf.Model.Name}
		if seen[key.Name] {
			l.log.Warn("duplicate companion name in pack, last one wins",
				zap.Stringer("companion", key),
				zap.String("dir", cf.Dir),
			)
		}
		seen[key.Name] = true

		if prev, ok := l.digests[key]; onlyChanged && ok && prev == cf.Digest {
			continue
		}
		prof, err := cf.Model.ToProfile()
		if err != nil {
			l.log.Warn("companion profile rejected", zap.Error(&companion.LoadError{Key: key, Err: err}))
			st.Rejected++
			continue
		}
		if err := l.reg.Register(prof); err != nil {
			st.Rejected++
			continue
		}
		l.digests[key] = cf.Digest
		st.Profiles++
	}

	if p.NoRings {
		l.log.Debug("no summoning rings available, this may be intended", zap.String("pack", p.Manifest.Name))
	}
	for _, r := range p.Rings {
		if _, ok := l.reg.Lookup(companion.ProfileKey{Owner: id, Name: r.CompanionName}); !ok {
			l.log.Warn("ring summons an unknown companion",
				zap.String("pack", id),
				zap.String("ring", r.Name),
				zap.String("companion", r.CompanionName),
			)
		}
		l.rings.Put(r)
		st.Rings++
	}
	return st
}

// WatchDirs lists every directory a watcher needs for hot reload: the packs
// dir, each pack, and each companion and object directory.
func (l *Loader) WatchDirs() []string {
	dirs := []string{l.dir}
	packs, err := subdirs(l.dir)
	if err != nil {
		return dirs
	}
	for _, p := range packs {
		dirs = append(dirs, p)
		for _, sub := range []string{"Companions", "Objects"} {
			children, err := subdirs(filepath.Join(p, sub))
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			dirs = append(dirs, filepath.Join(p, sub))
			dirs = append(dirs, children...)
		}
	}
	return dirs
}
