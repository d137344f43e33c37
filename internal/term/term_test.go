package term

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/vidconv/internal/config"
)

func TestResolve(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if !resolve(config.ColorAlways, f) {
		t.Error("always must enable colors")
	}
	if resolve(config.ColorNever, f) {
		t.Error("never must disable colors")
	}
	if resolve(config.ColorAuto, f) {
		t.Error("auto must disable colors on a regular file")
	}
	if IsTerminal(nil) {
		t.Error("nil file is not a terminal")
	}
}

func TestConfigure(t *testing.T) {
	t.Cleanup(func() { Configure(config.ColorNever) })

	if !Configure(config.ColorAlways) || !Enabled() || Red == "" {
		t.Error("ColorAlways should set the palette")
	}
	if Configure(config.ColorNever) || Enabled() || Red != "" {
		t.Error("ColorNever should clear the palette")
	}
}
