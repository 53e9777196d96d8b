// Package assets provides the stylesheet, document template and optional
// diagram engine script used to build the printable export.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the exporter. A custom directory can
// override any single asset while the rest come from the embedded defaults.
// Scripts are never embedded: a diagram engine is only found when a custom
// directory provides one.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	├── templates/
//	│   └── {name}.html
//	└── scripts/
//	    └── {name}.js
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
