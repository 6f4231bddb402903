package content

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/l1jgo/companions/internal/companion"
	"github.com/l1jgo/companions/internal/data"
	"go.uber.org/zap/zaptest"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

const frogJSON = `{
  "Name": "Frog",
  "IdleBehavior": "Jumper",
  "TravelSpeed": 2,
  "UniformAnimation": {"StartingFrame": 0, "NumberOfFrames": 3, "Duration": 120},
  "EnableFarmerCollision": false
}`

// buildPacks lays out two packs: "critters" with two companions (one broken,
// one folder missing its file) and a ring; "birds" without Objects.
func buildPacks(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "critters", "manifest.json"),
		`{"Name": "Critters", "Author": "test", "Version": "1.0.0", "UniqueID": "test.critters"}`)
	writeFile(t, filepath.Join(root, "critters", "Companions", "Frog", "companion.json"), frogJSON)
	writeFile(t, filepath.Join(root, "critters", "Companions", "Blob", "companion.json"),
		`{"Name": "Blob", "IdleBehavior": "Wander"}`)
	if err := os.MkdirAll(filepath.Join(root, "critters", "Companions", "Empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "critters", "Objects", "FrogRing", "object.json"),
		`{"Name": "Frog Ring", "Price": 250, "CompanionName": "Frog", "NumberOfCompanionsToSummon": 2}`)

	writeFile(t, filepath.Join(root, "birds", "manifest.yaml"), "Name: Birds\nUniqueID: test.birds\n")
	writeFile(t, filepath.Join(root, "birds", "Companions", "Crow", "companion.json"),
		`{"Name": "Crow", "Type": "Flying", "IdleBehavior": "Hover", "UniformAnimation": {"NumberOfFrames": 1}}`)

	if err := os.MkdirAll(filepath.Join(root, "not-a-pack"), 0o755); err != nil {
		t.Fatal(err)
	}
	return root
}

func newTestLoader(t *testing.T, root string) (*Loader, *companion.Registry, *data.RingTable) {
	t.Helper()
	log := zaptest.NewLogger(t)
	reg := companion.NewRegistry(nil, companion.NewRandom(1), log)
	rings := data.NewRingTable()
	return NewLoader(root, reg, rings, log), reg, rings
}

func TestLoadAll(t *testing.T) {
	l, reg, rings := newTestLoader(t, buildPacks(t))

	st, err := l.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if st.Packs != 2 || st.Profiles != 2 || st.Rejected != 1 || st.Rings != 1 {
		t.Errorf("stats = %+v", st)
	}
	if _, ok := reg.Lookup(companion.ProfileKey{Owner: "test.critters", Name: "Frog"}); !ok {
		t.Error("Frog not registered")
	}
	if _, ok := reg.Lookup(companion.ProfileKey{Owner: "test.critters", Name: "Blob"}); ok {
		t.Error("Blob without animation was registered")
	}
	crow, ok := reg.Lookup(companion.ProfileKey{Owner: "test.birds", Name: "Crow"})
	if !ok || !crow.Flying() || crow.Behavior != companion.BehaviorHover {
		t.Errorf("Crow = %+v, %v", crow, ok)
	}
	r := rings.Get("test.critters", "Frog Ring")
	if r == nil || r.NumberOfCompanionsToSummon != 2 {
		t.Errorf("ring = %+v", r)
	}
}

func TestReadPackProblems(t *testing.T) {
	root := buildPacks(t)
	p, err := ReadPack(filepath.Join(root, "critters"))
	if err != nil {
		t.Fatalf("ReadPack: %v", err)
	}
	if len(p.Problems) != 1 {
		t.Errorf("problems = %v, want the missing companion.json", p.Problems)
	}
	if p.NoRings {
		t.Error("critters has rings")
	}

	birds, err := ReadPack(filepath.Join(root, "birds"))
	if err != nil {
		t.Fatalf("ReadPack: %v", err)
	}
	if !birds.NoRings {
		t.Error("birds should report no rings")
	}

	if _, err := ReadPack(filepath.Join(root, "not-a-pack")); err == nil {
		t.Error("directory without manifest read as pack")
	}
}

func TestReloadHotSwapsChangedCompanion(t *testing.T) {
	root := buildPacks(t)
	l, reg, _ := newTestLoader(t, root)
	if _, err := l.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	key := companion.ProfileKey{Owner: "test.critters", Name: "Frog"}
	h := reg.Spawn(key, companion.MapBinding("Farm", companion.Tile{X: 2, Y: 2}))
	e, _ := reg.Get(h)

	// Untouched files are skipped.
	path := filepath.Join(root, "critters", "Companions", "Frog", "companion.json")
	id, st, err := l.Reload(path)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if id != "test.critters" || st.Profiles != 0 {
		t.Errorf("unchanged reload: id=%q stats=%+v", id, st)
	}

	writeFile(t, path, `{
  "Name": "Frog",
  "IdleBehavior": "Jumper",
  "TravelSpeed": 5,
  "UniformAnimation": {"StartingFrame": 0, "NumberOfFrames": 3, "Duration": 120},
  "EnableFarmerCollision": true
}`)
	_, st, err = l.Reload(path)
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if st.Profiles != 1 {
		t.Errorf("changed reload stats = %+v", st)
	}
	if !e.Profile().EnableFarmerCollision || e.Profile().TravelSpeed != 5 {
		t.Errorf("live companion kept old profile: %+v", e.Profile())
	}

	if _, _, err := l.Reload(filepath.Join(t.TempDir(), "elsewhere.json")); err == nil {
		t.Error("reload outside packs dir accepted")
	}
}

func TestWatchDirs(t *testing.T) {
	root := buildPacks(t)
	l, _, _ := newTestLoader(t, root)
	dirs := l.WatchDirs()
	want := make(map[string]bool)
	for _, d := range []string{
		root,
		filepath.Join(root, "critters", "Companions", "Frog"),
		filepath.Join(root, "critters", "Objects", "FrogRing"),
		filepath.Join(root, "birds", "Companions", "Crow"),
	} {
		want[d] = true
	}
	for _, d := range dirs {
		delete(want, d)
	}
	if len(want) != 0 {
		t.Errorf("missing watch dirs: %v", want)
	}
}

func TestDigestChangesWithContent(t *testing.T) {
	a := digestOf([]byte(frogJSON))
	if a != digestOf([]byte(frogJSON)) {
		t.Error("digest not stable")
	}
	if a == digestOf([]byte(frogJSON+" ")) {
		t.Error("digest ignored a change")
	}
}

func TestWatcherReportsContentFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}
	defer w.Close()

	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	target := filepath.Join(dir, "companion.json")
	writeFile(t, target, "{}")

	timeout := time.After(3 * time.Second)
	for {
		select {
		case name := <-w.Events:
			if name == target {
				return
			}
			if filepath.Ext(name) == ".txt" {
				t.Fatalf("non-content file reported: %s", name)
			}
		case <-timeout:
			t.Fatal("no event for companion.json")
		}
	}
}
