// Package pipeline turns page view models into standalone HTML documents.
//
// Stages:
//   - tips Markdown to HTML via Goldmark (raw HTML disabled)
//   - page template execution (html/template, auto-escaped)
//   - CSS injection: base stylesheet, theme variables, export-only rules
//
// Rasterization is handled by the root routinepdf package with headless
// Chrome (go-rod). The pipeline never touches the browser, which keeps
// rendering pure and deterministic for a given view model.
package pipeline
