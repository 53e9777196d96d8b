// Package mdexport exports linked markdown documents to a single PDF using
// headless Chrome.
//
// # Quick Start
//
// Create an exporter, export a document set, and close when done:
//
//	exp, err := mdexport.NewExporter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	docs, _ := exp.Collect(ctx, mdexport.Document{
//	    Title:      "Guide",
//	    Markdown:   content,
//	    SourcePath: "/notes/guide.md",
//	})
//	result, err := exp.Export(ctx, "Guide", docs, mdexport.DefaultExportOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("guide.pdf", result.PDF, 0644)
//
// # Export Pipeline
//
// An export runs these stages for one document set:
//
//  1. Link collection: documents reachable through relative links (file entry only)
//  2. Image inlining: relative images become data URIs
//  3. Identifier assignment: one id per document, namespaced heading anchors
//  4. Link rewriting: cross-document links point at anchors inside the PDF
//  5. Rendering: goldmark to HTML, mermaid placeholders, task checkboxes
//  6. Composition: one section per document with a page break between them
//  7. Rasterization: headless Chrome runs mermaid, waits for fonts, prints A4
//
// Steps 1, 2 and the diagram run are best effort. Anything they could not do
// is reported in Result.Skips instead of failing the export.
//
// # Entry Points
//
// Coordinator wraps an Exporter with the user-facing flow: choose a
// destination, export, write, verify, and report a localized Status.
//
//	coord := mdexport.NewCoordinator(exp,
//	    mdexport.WithPrompter(mdexport.FixedDestination("out.pdf")),
//	)
//	status := coord.ExportFolder(ctx, mdexport.BatchRequest{Title: "Notes", Documents: docs})
//	fmt.Println(status.Message)
//
// # Rendering Backends
//
// Two Chrome drivers are available: go-rod (BackendRod, default) and chromedp
// (BackendChromedp). Each export creates and destroys its own browser tab.
// ExporterPool bounds the number of browsers when exporting in parallel.
package mdexport
