package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/restday/internal/engine"
	"github.com/claude/restday/internal/journal"
	"github.com/claude/restday/internal/mcp"
	"github.com/claude/restday/internal/muscle"
	"github.com/claude/restday/internal/snapshot"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	snapshotPath := flag.String("snapshot", "", "path to a JSON or YAML snapshot document")
	journalPath := flag.String("journal", "", "path to a SQLite journal")
	serverURL := flag.String("server", "", "restday server URL (e.g. https://restday.tail1234.ts.net)")
	advisory := flag.Int("advisory-max-rest-days", 0, "informational max rest days on report rows (0 = knowledge base maximum)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("restday-mcp", Version)
		return
	}

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	set := 0
	for _, v := range []string{*snapshotPath, *journalPath, *serverURL} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		fmt.Fprintf(os.Stderr, "Usage: restday-mcp (-snapshot <file> | -journal <db> | -server <URL>)\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	kb, err := muscle.Load()
	if err != nil {
		log.Error("invalid knowledge base", "error", err)
		os.Exit(1)
	}

	var ds mcp.DataSource
	switch {
	case *serverURL != "":
		ds = mcp.NewHTTPClient(*serverURL)
		log.Info("using remote server", "url", *serverURL)
	case *journalPath != "":
		j, err := journal.Open(*journalPath)
		if err != nil {
			log.Error("failed to open journal", "path", *journalPath, "error", err)
			os.Exit(1)
		}
		defer j.Close()
		ds = j
	default:
		ds = snapshot.NewFileSource(*snapshotPath, log)
	}

	eng := engine.New(kb, engine.Options{AdvisoryMaxRestDays: *advisory}, log)
	s := mcp.New(eng, ds, nil, Version, log)

	if err := mcpserver.ServeStdio(s); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
