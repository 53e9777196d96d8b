// Package pipeline implements the document stages of a markdown export.
//
// A root document is expanded into an ordered set by walking its relative
// links, then each document goes through these stages:
//   - Local image references are inlined as data URIs
//   - Every document receives an export-wide identifier
//   - Relative document links and anchors are rewritten into that namespace
//   - Authoring mistakes (missing spaces after markers) are normalized
//   - Markdown is rendered to HTML via Goldmark
//   - Task checkboxes and namespaced heading ids are applied to the DOM
//   - Sections are composed into a single printable HTML document
//
// Rasterization to PDF lives in the root mdexport package, which drives a
// headless browser. This package never touches a browser and only reads
// files through the injected ReadFileFunc.
package pipeline
