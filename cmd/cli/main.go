package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"invoicegen/app"
	"invoicegen/domain/layout"
	"invoicegen/internal/config"
	"invoicegen/internal/container"
)

func main() {
	output := flag.String("o", "", "output path (default: OUTPUT_DIR)")
	templateDir := flag.String("template-dir", "", "template directory override")
	bundleDir := flag.String("bundle-dir", "", "bundle config directory override")
	configPath := flag.String("config", "", "explicit path to a bundle config file")
	templatePath := flag.String("template", "", "explicit path to a template workbook")
	daf := flag.Bool("daf", false, "render in DAF mode")
	custom := flag.Bool("custom", false, "render in custom aggregation mode")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <input-data.json> [more-inputs...]\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fatal("configuration: %v", err)
	}
	if *bundleDir != "" {
		cfg.Paths.BundleDir = *bundleDir
	}
	if *templateDir != "" {
		cfg.Paths.TemplateDir = *templateDir
	}

	c, err := container.New(cfg)
	if err != nil {
		fatal("container: %v", err)
	}
	if cfg.Database.Enabled() {
		if db, err := sqlx.Connect("postgres", cfg.Database.URL); err == nil {
			if err := c.InitWithDatabase(db); err != nil {
				fmt.Fprintf(os.Stderr, "warning: audit trail unavailable: %v\n", err)
			}
		} else {
			fmt.Fprintf(os.Stderr, "warning: database connection failed, continuing without audit: %v\n", err)
		}
	}
	ctx := context.Background()
	defer c.Shutdown(ctx)

	mode := layout.Mode{DAF: *daf, Custom: *custom}
	requests := make([]app.GenerationRequest, flag.NArg())
	for i, input := range flag.Args() {
		requests[i] = app.GenerationRequest{
			DataPath:             input,
			Mode:                 mode,
			ExplicitConfigPath:   *configPath,
			ExplicitTemplatePath: *templatePath,
		}
	}
	// An explicit output path only makes sense for a single input.
	if *output != "" && len(requests) == 1 {
		requests[0].OutputPath = *output
	}

	if len(requests) == 1 {
		result, err := c.Generation.Generate(ctx, requests[0])
		if err != nil {
			fatal("generation failed: %v", err)
		}
		fmt.Printf("%s: %s (%s)\n", result.Session.Identifier, result.OutputPath, result.Session.Status)
		return
	}

	failed := 0
	for _, item := range c.Batch.Run(ctx, requests) {
		if item.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", item.Request.DataPath, item.Err)
			continue
		}
		fmt.Printf("%s: %s (%s)\n", item.Result.Session.Identifier, item.Result.OutputPath, item.Result.Session.Status)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
