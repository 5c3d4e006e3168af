// Package routinepdf exports trainer routines (workout or meal plans) as a
// paginated PDF, a single JPEG image, or plain text.
//
// # Quick Start
//
// Create an exporter, export a routine, and close when done:
//
//	exp, err := routinepdf.NewExporter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	result, err := exp.ExportPDF(ctx, routinepdf.ExportInput{
//	    Routine: routine,
//	    Meta:    routinepdf.Meta{RenewalDate: "۲۶ مهر ۱۴۰۵"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile(result.FileName, result.Data, 0644)
//
// # PDF Pagination
//
// Each day (or group of days, see WithGroupSize) is rendered to its own HTML
// page, rasterized in a fresh headless Chrome tab, and placed on an A4 page
// at content width. A day too tall for one page is cut into strips, each on
// its own page, without rendering it again. The header appears on the
// first logical page only; tips and the contact footer on the last.
//
// # Configuration
//
// Use functional options to customize the exporter:
//
//	exp, err := routinepdf.NewExporter(
//	    routinepdf.WithTimeout(2 * time.Minute),
//	    routinepdf.WithDecoration(routinepdf.DecorationRich),
//	    routinepdf.WithAssetPath("/path/to/custom/assets"),
//	    routinepdf.WithLogger(slog.Default()),
//	)
//
// # Themes
//
// Themes are color palettes loaded from embedded YAML or a custom asset
// directory through ThemeCatalog. Switching theme changes colors only.
//
// # Parallel Processing
//
// An Exporter owns one browser and handles one export at a time. Servers use
// ExporterPool:
//
//	pool := routinepdf.NewExporterPool(routinepdf.ResolvePoolSize(0))
//	defer pool.Close()
//
//	exp, err := pool.Acquire(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(exp)
//
// # Browser
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package routinepdf
