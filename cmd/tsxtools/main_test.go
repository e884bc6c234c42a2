package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunValidateReportsEveryTileset(t *testing.T) {
	dir := t.TempDir()
	doc := `<tileset name="%s" tilewidth="8" tileheight="8" tilecount="4" columns="2">
 <tile id="0"><animation><frame tileid="9" duration="100"/></animation></tile>
</tileset>`
	for _, name := range []string{"a", "b"} {
		body := strings.Replace(doc, "%s", name, 1)
		if err := os.WriteFile(filepath.Join(dir, name+".tsx"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	if code := runValidate(&out, dir); code != 1 {
		t.Errorf("runValidate exit = %d, want 1", code)
	}
	got := out.String()
	for _, want := range []string{`Validating "a" (a.tsx)`, `Validating "b" (b.tsx)`, "2 error(s) found"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "unknown tile reference"); n != 2 {
		t.Errorf("got %d unknown tile reports, want 2:\n%s", n, got)
	}
}

func TestRunValidateFixtures(t *testing.T) {
	var out bytes.Buffer
	if code := runValidate(&out, filepath.Join("..", "..", "internal", "tileset", "testdata")); code != 0 {
		t.Errorf("runValidate exit = %d, want 0:\n%s", code, out.String())
	}
}
