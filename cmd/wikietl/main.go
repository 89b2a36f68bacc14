// Command wikietl runs the Wikipedia page pipeline: list the available
// jobs, dry-run a job to see its resolved stage order, or execute one.
// Configuration comes from the environment (WIKI_API_URL, OUTPUT_PATH,
// STORAGE_KIND, POSTGRES_DSN, FETCH_TIMEOUT_SECONDS, PAGE_LIMIT), read once
// at startup. Exit code 0 on success, 1 on failure, unknown job name, or
// argument error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"wikietl/internal/config"
	"wikietl/internal/graph"
	"wikietl/internal/source/wikiapi"
	"wikietl/internal/storage"
	"wikietl/internal/wiki"

	// register all built-in storage backends with the registry.
	_ "wikietl/internal/storage/all"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("wikietl", flag.ContinueOnError)
	fs.SetOutput(out)
	var (
		jobName  = fs.String("job", "", "job name to execute")
		listJobs = fs.Bool("list-jobs", false, "list all available jobs")
		dryRun   = fs.Bool("dry-run", false, "show the stages a job would execute without running")
		verbose  = fs.Bool("v", false, "enable verbose diagnostics")
	)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if !*verbose {
		log.SetOutput(io.Discard)
	}

	cfg := config.FromEnv()
	if issues := config.Validate(cfg, storage.Kinds()); len(issues) > 0 {
		hasError := false
		for _, iss := range issues {
			fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
			if iss.Severity == config.SeverityError {
				hasError = true
			}
		}
		if hasError {
			return 1
		}
	}

	g, err := buildGraph(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup: %v\n", err)
		return 1
	}

	if *listJobs {
		fmt.Fprintln(out, "Available jobs:")
		for _, j := range g.Jobs() {
			fmt.Fprintf(out, "  %-24s %s\n", j.Name, j.Description)
		}
		return 0
	}

	if *jobName == "" {
		fs.Usage()
		return 1
	}

	j, ok := g.Job(*jobName)
	if !ok {
		names := make([]string, 0)
		for _, known := range g.Jobs() {
			names = append(names, known.Name)
		}
		fmt.Fprintf(os.Stderr, "unknown job %q (available: %s)\n", *jobName, strings.Join(names, ", "))
		return 1
	}

	if *dryRun {
		order, err := g.Resolve(j)
		if err != nil {
			fmt.Fprintf(os.Stderr, "resolve: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Job %s: %s\n", j.Name, j.Description)
		fmt.Fprintln(out, "Stages that would execute:")
		for _, name := range order {
			fmt.Fprintf(out, "  - %s\n", name)
		}
		return 0
	}

	start := time.Now()
	rep, err := g.Run(context.Background(), j)
	if err != nil {
		fmt.Fprintf(os.Stderr, "job %s failed: %v\n", j.Name, err)
		if *verbose {
			printResults(os.Stderr, rep)
		}
		return 1
	}

	fmt.Fprintf(out, "job %s completed in %s\n", j.Name, time.Since(start).Truncate(time.Millisecond))
	if *verbose {
		printResults(out, rep)
	}
	return 0
}

// buildGraph constructs the collaborators from config and wires the stage
// graph around them.
func buildGraph(cfg config.Config) (*graph.Graph, error) {
	client := wikiapi.NewClient(wikiapi.Config{
		BaseURL: cfg.SourceURL,
		Timeout: cfg.FetchTimeout,
		Limit:   cfg.PageLimit,
	})

	backend, err := storage.Open(context.Background(), storage.Config{
		Kind:    cfg.StorageKind,
		BaseDir: cfg.OutputDir,
		DSN:     cfg.PostgresDSN,
	})
	if err != nil {
		return nil, err
	}

	deps := wiki.Deps{
		Source:   client,
		Exporter: storage.Exporter{Backend: backend},
	}
	if strings.EqualFold(cfg.StorageKind, "json") {
		deps.PagesDest = "pages.json"
		deps.FilteredDest = "filtered_pages.json"
	}
	return wiki.Build(deps)
}

func printResults(w io.Writer, rep graph.Report) {
	fmt.Fprintf(w, "run %s:\n", rep.RunID)
	for _, res := range rep.Results {
		line := fmt.Sprintf("  %-26s %-9s rows=%d", res.Name, res.Status, res.Output.Len())
		if res.Err != nil {
			line += " err=" + res.Err.Error()
		}
		fmt.Fprintln(w, line)
		for k, v := range res.Meta {
			fmt.Fprintf(w, "      %s=%v\n", k, v)
		}
	}
}
