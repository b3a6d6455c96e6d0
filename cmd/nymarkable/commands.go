package main

import (
	"context"
	"fmt"
	"time"
)

// runLogin opens a visible browser and waits for the user to sign in.
func runLogin(ctx context.Context, rc *runContext) error {
	if !rc.flags.common.quiet {
		fmt.Fprintln(rc.env.Stderr, "Sign in in the browser window. It closes once the session is stored.")
	}
	if err := rc.edition.Login(ctx); err != nil {
		return err
	}
	if !rc.flags.common.quiet {
		fmt.Fprintln(rc.env.Stdout, "Logged in.")
	}
	return nil
}

// runSections prints one section title per line.
func runSections(ctx context.Context, rc *runContext) error {
	titles, err := rc.edition.Sections(ctx)
	if err != nil {
		return err
	}
	for _, t := range titles {
		if t == "" {
			t = "(untitled)"
		}
		fmt.Fprintln(rc.env.Stdout, t)
	}
	return nil
}

// runCreateEdition writes the merged edition to outputPath.
func runCreateEdition(ctx context.Context, rc *runContext, outputPath string) error {
	start := rc.env.Now()
	res, err := rc.edition.Create(ctx, outputPath, rc.cfg.Harvest.Sections)
	if err != nil {
		return err
	}
	if len(res.Articles) == 0 {
		fmt.Fprintln(rc.env.Stdout, "No articles found")
		return nil
	}

	rc.progress.finish()
	if !rc.flags.common.quiet {
		fmt.Fprintf(rc.env.Stdout, "Created %s (%d articles, %d pages)%s\n",
			res.Output, len(res.Articles), res.Pages, elapsed(rc, start))
	}
	return nil
}

// runUpdateDevice builds the edition and uploads it to the tablet.
func runUpdateDevice(ctx context.Context, rc *runContext) error {
	start := rc.env.Now()
	res, err := rc.edition.UpdateDevice(ctx, rc.cfg.Device, rc.cfg.Harvest.Sections)
	if err != nil {
		return err
	}
	if len(res.Articles) == 0 {
		fmt.Fprintln(rc.env.Stdout, "No articles found")
		return nil
	}

	rc.progress.finish()
	if !rc.flags.common.quiet {
		fmt.Fprintf(rc.env.Stdout, "Uploaded %s to %s (%d articles, %d pages)%s\n",
			rc.cfg.Device.Filename, rc.cfg.Device.Address, len(res.Articles), res.Pages, elapsed(rc, start))
	}
	return nil
}

// elapsed formats the run time for --verbose.
func elapsed(rc *runContext, start time.Time) string {
	if !rc.flags.common.verbose {
		return ""
	}
	return fmt.Sprintf(" in %s", rc.env.Now().Sub(start).Round(time.Second))
}
