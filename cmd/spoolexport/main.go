// Command spoolexport runs one fetch-and-export cycle from the command
// line and writes the resulting buffer to disk. It covers scheduled or
// ad-hoc batch exports without the HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dataspool/internal/config"
	"dataspool/internal/exporter"
	"dataspool/internal/infrastructure"
	"dataspool/internal/spool"
)

func main() {
	table := flag.String("table", "", "friendly table selection (see config tables)")
	start := flag.String("start", "", "inclusive start date, YYYY-MM-DD")
	end := flag.String("end", "", "inclusive end date, YYYY-MM-DD")
	format := flag.String("format", "xlsx", "export format: xlsx or csv")
	outDir := flag.String("out", ".", "output directory")
	chunk := flag.Int("chunk", 0, "retrieval chunk size (default from config)")
	flag.Parse()

	if *table == "" || *start == "" || *end == "" {
		fmt.Fprintln(os.Stderr, "usage: spoolexport -table <name> -start <date> -end <date> [-format xlsx|csv] [-out dir]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	startDate, err := time.Parse("2006-01-02", *start)
	if err != nil {
		logger.Error("invalid start date", "start", *start, "error", err)
		os.Exit(2)
	}
	endDate, err := time.Parse("2006-01-02", *end)
	if err != nil {
		logger.Error("invalid end date", "end", *end, "error", err)
		os.Exit(2)
	}

	chunkSize := cfg.Export.ChunkSize
	if *chunk > 0 {
		chunkSize = *chunk
	}

	extractor := spool.NewExtractor(spool.TableMap(cfg.Tables), logger)

	ctx := context.Background()
	result, err := extractor.Fetch(ctx, spool.Params{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		Database:       cfg.Database.Name,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	}, spool.Query{
		Selection: *table,
		Start:     startDate,
		End:       endDate,
		ChunkSize: chunkSize,
	})
	if err != nil {
		logger.Error("fetch failed", "table", *table, "error", err)
		os.Exit(1)
	}

	var buf *exporter.Buffer
	switch *format {
	case "xlsx":
		buf, err = exporter.ToSpreadsheet(result, *table, startDate, endDate)
	case "csv":
		buf, err = exporter.ToCompressedCSV(result, *table, startDate, endDate)
	default:
		logger.Error("invalid format", "format", *format)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("serialization failed", "format", *format, "error", err)
		os.Exit(1)
	}

	outPath := filepath.Join(*outDir, buf.Filename)
	if err := os.WriteFile(outPath, buf.Data, 0644); err != nil {
		logger.Error("failed to write output", "path", outPath, "error", err)
		os.Exit(1)
	}

	logger.Info("export written",
		slog.String("path", outPath),
		slog.Int("rows", result.Len()),
		slog.Int("bytes", len(buf.Data)))
}
