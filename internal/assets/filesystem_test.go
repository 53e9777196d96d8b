package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeAsset creates {dir}/{sub}/{file} with content.
func writeAsset(t *testing.T, dir, sub, file, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sub, file), []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestNewFilesystemLoader(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "valid directory", path: tmpDir},
		{name: "empty path", path: "", wantErr: true},
		{name: "nonexistent directory", path: filepath.Join(tmpDir, "missing"), wantErr: true},
		{name: "file instead of directory", path: filePath, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewFilesystemLoader(tt.path)
			if tt.wantErr && !errors.Is(err, ErrInvalidBasePath) {
				t.Errorf("NewFilesystemLoader(%q) error = %v, want ErrInvalidBasePath", tt.path, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewFilesystemLoader(%q) unexpected error: %v", tt.path, err)
			}
		})
	}
}

func TestFilesystemLoader_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeAsset(t, dir, "styles", "custom.css", "body{}")
	writeAsset(t, dir, "templates", "page.html", "<main></main>")
	writeAsset(t, dir, "scripts", "mermaid.js", "window.mermaid={}")

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}

	tests := []struct {
		name    string
		load    func(string) (string, error)
		asset   string
		want    string
		wantErr error
	}{
		{name: "style", load: loader.LoadStyle, asset: "custom", want: "body{}"},
		{name: "template", load: loader.LoadTemplate, asset: "page", want: "<main></main>"},
		{name: "script", load: loader.LoadScript, asset: "mermaid", want: "window.mermaid={}"},
		{name: "missing style", load: loader.LoadStyle, asset: "other", wantErr: ErrStyleNotFound},
		{name: "missing template", load: loader.LoadTemplate, asset: "other", wantErr: ErrTemplateNotFound},
		{name: "missing script", load: loader.LoadScript, asset: "other", wantErr: ErrScriptNotFound},
		{name: "invalid name", load: loader.LoadScript, asset: "../../etc/passwd", wantErr: ErrInvalidAssetName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.load(tt.asset)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("load(%q) error = %v, want %v", tt.asset, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("load(%q) unexpected error: %v", tt.asset, err)
			}
			if got != tt.want {
				t.Errorf("load(%q) = %q, want %q", tt.asset, got, tt.want)
			}
		})
	}
}

func TestFilesystemLoader_SymlinkEscape(t *testing.T) {
	t.Parallel()

	outside := t.TempDir()
	writeAsset(t, outside, ".", "secret.css", "secret")

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(outside, "secret.css"), filepath.Join(dir, "styles", "leak.css")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	loader, err := NewFilesystemLoader(dir)
	if err != nil {
		t.Fatalf("NewFilesystemLoader() error = %v", err)
	}
	if _, err := loader.LoadStyle("leak"); !errors.Is(err, ErrPathTraversal) {
		t.Errorf("LoadStyle(leak) error = %v, want ErrPathTraversal", err)
	}
}
