// packcheck validates companion content packs without starting the engine.
//
// Usage:
//
//	go run ./cmd/packcheck [-packs dir] [-sounds file] [-out report.yaml]
//
// Exit status is 1 when any companion or ring would be rejected at load.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/content"
	"github.com/l1jgo/companions/internal/data"
	"gopkg.in/yaml.v3"
)

type companionReport struct {
	Name     string   `yaml:"name"`
	Behavior string   `yaml:"behavior,omitempty"`
	Flying   bool     `yaml:"flying,omitempty"`
	Sounds   int      `yaml:"sounds"`
	Warnings []string `yaml:"warnings,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

type ringReport struct {
	Name      string `yaml:"name"`
	Companion string `yaml:"companion"`
	Count     int    `yaml:"count"`
	Error     string `yaml:"error,omitempty"`
}

type packReport struct {
	ID         string            `yaml:"id"`
	Name       string            `yaml:"name"`
	Version    string            `yaml:"version,omitempty"`
	Problems   []string          `yaml:"problems,omitempty"`
	Companions []companionReport `yaml:"companions"`
	Rings      []ringReport      `yaml:"rings,omitempty"`
}

type report struct {
	Packs    []packReport `yaml:"packs"`
	Skipped  []string     `yaml:"skipped,omitempty"`
	Failures int          `yaml:"failures"`
}

type soundSet map[string]bool

func (s soundSet) IsValid(id string) bool { return s[id] }

func main() {
	packsDir := flag.String("packs", "packs", "content packs directory")
	soundsFile := flag.String("sounds", filepath.Join("data", "yaml", "sounds.yaml"), "sound id list (optional)")
	out := flag.String("out", "", "write a YAML report to this file")
	flag.Parse()

	var validator companion.SoundValidator
	ids, err := data.LoadSoundList(*soundsFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(os.Stderr, "note: %s not found, sound ids not checked\n", *soundsFile)
	case err != nil:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	default:
		set := make(soundSet, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		validator = set
	}

	rep, err := check(*packsDir, validator)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printReport(rep)

	if *out != "" {
		raw, err := yaml.Marshal(rep)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, raw, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("Report written to %s\n", *out)
	}
	if rep.Failures > 0 {
		os.Exit(1)
	}
}

// check reads every pack under dir and runs each companion through the
// same conversion and validation the engine uses.
func check(dir string, sounds companion.SoundValidator) (*report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read packs dir: %w", err)
	}
	rep := &report{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p, err := content.ReadPack(filepath.Join(dir, e.Name()))
		if err != nil {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s: %v", e.Name(), err))
			continue
		}
		rep.Packs = append(rep.Packs, checkPack(p, sounds, &rep.Failures))
	}
	sort.Slice(rep.Packs, func(i, j int) bool { return rep.Packs[i].ID < rep.Packs[j].ID })
	return rep, nil
}

func checkPack(p *content.Pack, sounds companion.SoundValidator, failures *int) packReport {
	pr := packReport{ID: p.ID(), Name: p.Manifest.Name, Version: p.Manifest.Version}
	for _, err := range p.Problems {
		pr.Problems = append(pr.Problems, err.Error())
		*failures++
	}

	known := make(map[string]bool)
	for _, cf := range p.Companions {
		cr := companionReport{Name: cf.Model.Name}
		prof, err := cf.Model.ToProfile()
		if err == nil {
			var prepared *companion.Profile
			var warnings []error
			prepared, warnings, err = companion.Prepare(prof, sounds)
			for _, w := range warnings {
				cr.Warnings = append(cr.Warnings, w.Error())
			}
			if err == nil {
				cr.Behavior = prepared.Behavior.String()
				cr.Flying = prepared.Flying()
				cr.Sounds = len(prepared.Sounds)
				known[prepared.Name] = true
			}
		}
		if err != nil {
			cr.Error = err.Error()
			*failures++
		}
		pr.Companions = append(pr.Companions, cr)
	}

	for _, r := range p.Rings {
		rr := ringReport{Name: r.Name, Companion: r.CompanionName, Count: r.NumberOfCompanionsToSummon}
		if !known[r.CompanionName] {
			rr.Error = "summons a companion this pack does not load"
			*failures++
		}
		pr.Rings = append(pr.Rings, rr)
	}
	return pr
}

func printReport(rep *report) {
	for _, s := range rep.Skipped {
		fmt.Printf("SKIP  %s\n", s)
	}
	for _, p := range rep.Packs {
		fmt.Printf("%s (%s %s)\n", p.ID, p.Name, p.Version)
		for _, msg := range p.Problems {
			fmt.Printf("  PROBLEM  %s\n", msg)
		}
		for _, c := range p.Companions {
			switch {
			case c.Error != "":
				fmt.Printf("  FAIL  %s: %s\n", c.Name, c.Error)
			default:
				fmt.Printf("  OK    %s [%s, %d sounds]\n", c.Name, c.Behavior, c.Sounds)
			}
			for _, w := range c.Warnings {
				fmt.Printf("        warning: %s\n", w)
			}
		}
		for _, r := range p.Rings {
			if r.Error != "" {
				fmt.Printf("  FAIL  ring %s: %s\n", r.Name, r.Error)
			} else {
				fmt.Printf("  OK    ring %s -> %d x %s\n", r.Name, r.Count, r.Companion)
			}
		}
	}
	fmt.Printf("%d pack(s), %d failure(s)\n", len(rep.Packs), rep.Failures)
}
