package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/mangaforge/pkg/config"
	"github.com/matzehuels/mangaforge/pkg/panel"
)

func TestRootCommand(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	want := []string{"generate", "render", "segment", "inspect", "cache", "config", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestCacheURL(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Dir = "/tmp/cache"

	redis := cfg
	redis.Cache.Backend = config.CacheRedis
	redis.Cache.URL = "redis://localhost:6379/0"

	none := cfg
	none.Cache.Backend = config.CacheNone

	tests := []struct {
		name    string
		cfg     config.Config
		noCache bool
		url     string
		want    string
	}{
		{"file backend", cfg, false, "", "/tmp/cache"},
		{"redis backend", redis, false, "", "redis://localhost:6379/0"},
		{"none backend", none, false, "", "none"},
		{"flag wins", redis, false, "/other", "/other"},
		{"no-cache wins", redis, true, "/other", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheURL(tt.cfg, tt.noCache, tt.url); got != tt.want {
				t.Errorf("cacheURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateFlagsOverrideConfig(t *testing.T) {
	c := New(&bytes.Buffer{}, log.InfoLevel)
	cmd := c.generateCommand()
	if err := cmd.ParseFlags([]string{"--images", "imgs/", "--format", "bson", "-w", "3"}); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Dataset.Sources.Fonts = "fonts.csv"
	var opts generateOpts
	opts.sources.images = "imgs/"
	opts.format = "bson"
	opts.workers = 3
	opts.apply(&cfg, cmd.Flags())

	if cfg.Dataset.Sources.Images != "imgs/" {
		t.Errorf("images = %q", cfg.Dataset.Sources.Images)
	}
	if cfg.Dataset.Sources.Fonts != "fonts.csv" {
		t.Errorf("unset flag overwrote fonts: %q", cfg.Dataset.Sources.Fonts)
	}
	if cfg.Output.MetadataFormat != "bson" || cfg.Workers.Count != 3 {
		t.Errorf("output = %+v, workers = %+v", cfg.Output, cfg.Workers)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"config", "init", path})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(path); err != nil {
		t.Errorf("written settings do not load: %v", err)
	}

	root = New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	root.SetArgs([]string{"config", "init", path})
	if err := root.Execute(); err == nil {
		t.Error("config init overwrote an existing file without --force")
	}
}

func TestPanelRows(t *testing.T) {
	pg := panel.NewPage("p", 100, 200, 2, panel.PageVertical)
	top := pg.AddChild(panel.Rect(0, 0, 100, 100), panel.Horizontal)
	top.Image = "/data/images/a.png"
	bottom := pg.AddChild(panel.Rect(0, 100, 100, 100), panel.Horizontal)
	bottom.NoRender = true

	rows := panelRows(pg)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][0] != "  "+top.Name || rows[1][5] != "a.png" || rows[1][3] != "0.50" {
		t.Errorf("top row = %v", rows[1])
	}
	if rows[2][4] != "hidden" || rows[2][5] != "—" {
		t.Errorf("bottom row = %v", rows[2])
	}
}

func TestPageListModel(t *testing.T) {
	files := []string{"m/a.json", "m/b.json", "m/c.bson"}
	var m tea.Model = NewPageListModel(files)

	for _, key := range []tea.KeyType{tea.KeyDown, tea.KeyDown, tea.KeyDown, tea.KeyUp} {
		m, _ = m.Update(tea.KeyMsg{Type: key})
	}
	if got := m.(PageListModel).Cursor; got != 1 {
		t.Errorf("cursor = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "▸ b.json") {
		t.Errorf("view does not mark b.json:\n%s", m.View())
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.(PageListModel).Selected != "m/b.json" || cmd == nil {
		t.Errorf("selected = %q", m.(PageListModel).Selected)
	}
}

func TestPickPageEmptyDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	path, err := pickPage(dir)
	if err != nil || path != "" {
		t.Errorf("pickPage() = %q, %v", path, err)
	}
}
