package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"materiais/internal/api"
	"materiais/internal/catalog"
	"materiais/internal/config"
	"materiais/internal/connectors"
	"materiais/internal/listener"
	"materiais/internal/logger"
	"materiais/internal/pipeline"
	"materiais/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	importer := pipeline.NewImportService(db, db, pipeline.OptionsFromConfig(cfg), log)

	cmd := os.Args[1]
	switch cmd {
	case "import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "price list path (pdf|xlsx|html|eml|txt) or - for stdin")
		asJSON := fs.Bool("json", false, "print the full report as JSON")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*file) == "" {
			must(fmt.Errorf("--file is required"))
		}
		report, err := importer.ImportPath(ctx, *file)
		if *asJSON {
			printJSON(report)
		}
		must(err)
		if !report.OK() {
			fmt.Printf("import rejected kind=%s: %s\n", report.Failure.Kind, report.Failure.Message)
			for _, line := range report.Failure.SampleLines {
				fmt.Printf("  | %s\n", line)
			}
			os.Exit(2)
		}
		fmt.Printf("import done run=%s format=%s found=%d upserted=%d modified=%d matched=%d writeErrors=%d\n",
			report.RunID, report.Format, report.FoundCount, report.Upserted, report.Modified, report.Matched, len(report.WriteErrors))
	case "detect":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "price list path")
		_ = fs.Parse(os.Args[2:])
		content, err := os.ReadFile(*file)
		must(err)
		text, err := pipeline.ExtractText(*file, content)
		must(err)
		analysis := pipeline.Analyze(text, pipeline.OptionsFromConfig(cfg))
		fmt.Printf("format=%s rule=%s lines=%d candidates=%d records=%d\n",
			analysis.Format, analysis.Rule, len(analysis.Lines), len(analysis.Candidates), len(analysis.Records))
		if analysis.Failure != nil {
			fmt.Printf("rejected kind=%s: %s\n", analysis.Failure.Kind, analysis.Failure.Message)
		}
	case "serve":
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewServer(db, importer, cfg, log).Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			must(err)
		}
	case "catalog:search":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		query := fs.String("q", "", "reference or name")
		limit := fs.Int("limit", 10, "max results")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*query) == "" {
			must(fmt.Errorf("--q is required"))
		}
		records, err := db.ListMaterials(ctx, "")
		must(err)
		for _, hit := range catalog.BuildIndex(records).Search(*query, *limit) {
			fmt.Printf("%.3f %-10s %-16s %s (%.3f €)\n", hit.Score, hit.Reason, hit.Material.Referencia, hit.Material.Nome, hit.Material.PrecoVenda)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		categoria := fs.String("categoria", "", "only this category")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		records, err := db.ListMaterials(ctx, *categoria)
		must(err)
		must(pipeline.ExportMaterialsToXLSX(records, *out))
		fmt.Printf("exported %d materials to %s\n", len(records), *out)
	case "imports:list":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		_ = fs.Parse(os.Args[2:])
		runs, err := db.ListImportRuns(ctx, *limit)
		must(err)
		for _, run := range runs {
			fmt.Printf("%s %s %-9s %-14s %-22s found=%d upserted=%d modified=%d %s\n",
				run.CreatedAt.Format(time.RFC3339), run.ID, run.Status, run.Format, run.FailureKind, run.Found, run.Upserted, run.Modified, run.Filename)
		}
	case "pricelist:sync":
		svc := catalog.NewSyncService(db, importer, cfg, log)
		results, err := svc.SyncAll(ctx)
		must(err)
		for _, res := range results {
			if res.Err != nil {
				fmt.Printf("%-9s %s: %v\n", res.Status, res.URL, res.Err)
				continue
			}
			fmt.Printf("%-9s %s\n", res.Status, res.URL)
		}
	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		label := fs.String("label", cfg.MailListenerLabel, "mailbox/label")
		from := fs.String("from", cfg.MailListenerFrom, "only messages from this sender")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := listener.MakeConnector(ctx, cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(ctx, *label, *from, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d\n", *provider, result.Fetched, result.Stored)
	case "mail:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", cfg.MailListenerProvider, "gmail|imap")
		_ = fs.Parse(os.Args[2:])
		svc := listener.NewService(db, importer, cfg, log)
		result, err := svc.ImportPending(ctx, strings.ToLower(*provider))
		must(err)
		fmt.Printf("mail import done imported=%d skipped=%d failed=%d\n", result.Imported, result.Skipped, result.Failed)
	case "mail:listen":
		s := listener.NewService(db, importer, cfg, log)
		must(s.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Println("usage: materiais <command>")
	fmt.Println("commands:")
	fmt.Println("  import --file=lista.pdf [--json]")
	fmt.Println("  detect --file=lista.pdf")
	fmt.Println("  serve")
	fmt.Println("  catalog:search --q=\"interruptor simples\" [--limit=10]")
	fmt.Println("  export:xlsx --out=./out/materiais.xlsx [--categoria=cabos]")
	fmt.Println("  imports:list [--limit=20]")
	fmt.Println("  pricelist:sync")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX [--from=...] --max=50")
	fmt.Println("  mail:import --provider=gmail|imap")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
