// Package nymarkable turns the daily edition of a newspaper web application
// into a single bookmarked PDF and optionally sends it to an e-reader.
//
// # Quick Start
//
// Create an Edition and build today's paper:
//
//	ed, err := nymarkable.NewEdition(
//	    nymarkable.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := ed.Create(ctx, "nytimes.pdf", []string{"World", "Business"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(len(res.Articles), "articles,", res.Pages, "pages")
//
// # Pipeline
//
//  1. A browser session is opened on a persistent profile so the site's
//     login survives between runs.
//  2. The edition root is loaded and its sections are listed.
//  3. Each headline of each allowed section is clicked and the article
//     view is printed to PDF.
//  4. The article PDFs are merged in discovery order and a two-level
//     outline (section, then article) is written.
//  5. Optionally the document is uploaded to the tablet's USB web interface.
//
// When the stored session has expired, the pipeline stops before touching
// the edition, opens a visible browser window for the operator to sign in,
// and starts over. The number of interactive logins per call is bounded by
// Config.Login.MaxAttempts.
//
// # Browser Requirements
//
// A Chrome/Chromium binary is required. go-rod downloads a managed Chromium
// on first run (~/.cache/rod/browser/) when none is found. Set ROD_BROWSER_BIN
// to use a specific binary and ROD_NO_SANDBOX=1 in containers.
package nymarkable
