package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestEmbeddedLoader(t *testing.T) {
	t.Parallel()

	loader := NewEmbeddedLoader()

	tests := []struct {
		name        string
		load        func(string) (string, error)
		asset       string
		wantErr     error
		wantContain string
	}{
		{
			name:        "default style",
			load:        loader.LoadStyle,
			asset:       DefaultStyleName,
			wantContain: ".doc-section",
		},
		{
			name:        "default template",
			load:        loader.LoadTemplate,
			asset:       DefaultTemplateName,
			wantContain: "range .Sections",
		},
		{
			name:    "missing style",
			load:    loader.LoadStyle,
			asset:   "nonexistent-style-xyz",
			wantErr: ErrStyleNotFound,
		},
		{
			name:    "missing template",
			load:    loader.LoadTemplate,
			asset:   "nonexistent-template-xyz",
			wantErr: ErrTemplateNotFound,
		},
		{
			name:    "scripts are never embedded",
			load:    loader.LoadScript,
			asset:   DiagramScriptName,
			wantErr: ErrScriptNotFound,
		},
		{
			name:    "invalid name",
			load:    loader.LoadStyle,
			asset:   "../secret",
			wantErr: ErrInvalidAssetName,
		},
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
			if !strings.Contains(got, tt.wantContain) {
				t.Errorf("load(%q) content should contain %q", tt.asset, tt.wantContain)
			}
		})
	}
}
