package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/chzyer/readline"
	"github.com/olekukonko/tablewriter"

	"github.com/kevin-cantwell/cqlparser"
	"github.com/kevin-cantwell/cqlparser/internal/config"
	"github.com/kevin-cantwell/cqlparser/internal/engine"
	"github.com/kevin-cantwell/cqlparser/internal/logging"
	"github.com/kevin-cantwell/cqlparser/internal/output"
	"github.com/kevin-cantwell/cqlparser/internal/source"
)

type sourceFlags []string

func (s *sourceFlags) String() string     { return strings.Join(*s, ",") }
func (s *sourceFlags) Set(v string) error { *s = append(*s, v); return nil }

var (
	configPath = flag.String("config", "", "Path to a YAML config file.")
	query      = flag.String("q", "", "Run a single CQL query and exit.")
	format     = flag.String("format", "", "Output format: json or table.")
	watch      = flag.String("watch", "", "Re-run the -q query on this cron schedule, e.g. '@every 5s'.")
	strict     = flag.Bool("strict", false, "Reject trailing input and empty field lists.")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn or error.")
	sources    sourceFlags
)

func main() {
	flag.Var(&sources, "source", "Table source as name=uri (repeatable). uri is stdin, file://x.csv|json|jsonl, sqlite://x.db#table or a path.")
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logging.Init(cfg.LoggingConfig()); err != nil {
		return err
	}
	defer logging.Close()
	log := logging.GetLogger()

	out, err := output.New(cfg.Output.Format, os.Stdout)
	if err != nil {
		return err
	}

	eng := engine.New(out, engine.WithLogger(log))
	for _, sc := range cfg.Sources {
		srcCfg, err := source.ParseURI(sc.Name, sc.URI)
		if err != nil {
			return err
		}
		src, err := source.New(srcCfg, log)
		if err != nil {
			return err
		}
		defer src.Close()
		eng.AddSource(src)
		logging.Debug("added source", "table", src.Name(), "type", src.Type())
	}

	opts := cqlparser.Options{
		RequireEOF:    cfg.Parser.RequireEOF,
		RequireFields: cfg.Parser.RequireFields,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		// a second interrupt kills the process
		stop()
		logging.Info("interrupted, shutting down")
	}()

	if *query != "" {
		stmts, err := cqlparser.ParseWithOptions(*query, opts)
		if err != nil {
			return describeParseError(*query, err)
		}
		if cfg.Watch != "" {
			return eng.Watch(ctx, cfg.Watch, stmts[0])
		}
		return eng.Execute(ctx, stmts[0])
	}

	return repl(ctx, eng, opts)
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	// flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Output.Format = *format
		case "watch":
			cfg.Watch = *watch
		case "log-level":
			cfg.Log.Level = *logLevel
		case "strict":
			cfg.Parser.RequireEOF = *strict
			cfg.Parser.RequireFields = *strict
		}
	})
	for _, v := range sources {
		if _, err := source.ParseFlag(v); err != nil {
			return nil, err
		}
		name, uri, _ := strings.Cut(v, "=")
		cfg.Sources = append(cfg.Sources, config.Source{Name: name, URI: uri})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func repl(ctx context.Context, eng *engine.Engine, opts cqlparser.Options) error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "cql> ",
		HistoryFile:     filepath.Join(os.TempDir(), "cql.history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer l.Close()

	fmt.Println("Welcome to cql. Type \\q to quit, \\dt to list tables, \\p <query> to show how a query parses.")
repl:
	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue repl
		} else if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Println("Error while reading line:", err)
			continue repl
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue repl
		case trimmed == "quit" || trimmed == "exit" || trimmed == "\\q":
			break repl
		case trimmed == "\\dt":
			listTables(eng)
			continue repl
		}

		parseOnly := false
		if strings.HasPrefix(trimmed, "\\p") {
			trimmed = strings.TrimSpace(trimmed[len("\\p"):])
			parseOnly = true
		}

		stmts, err := cqlparser.ParseWithOptions(trimmed, opts)
		if err != nil {
			fmt.Println(describeParseError(trimmed, err))
			continue repl
		}

		if parseOnly {
			printStatement(stmts[0])
			continue repl
		}

		if err := eng.Execute(ctx, stmts[0]); err != nil {
			fmt.Println("Error:", err)
			continue repl
		}
	}
	return nil
}

func printStatement(stmt cqlparser.Statement) {
	fmt.Println(stmt.String())
	b, err := json.MarshalIndent(stmt, "", "  ")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(string(b))
}

func listTables(eng *engine.Engine) {
	tables := eng.Tables()
	if len(tables) == 0 {
		fmt.Println("Did not find any relations.")
		return
	}

	fmt.Println("List of relations")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	for _, name := range tables {
		table.Append([]string{name})
	}
	table.Render()

	fmt.Println("")
}

// describeParseError points at the offset a syntax error occurred at.
func describeParseError(input string, err error) error {
	var se *cqlparser.SyntaxError
	if !errors.As(err, &se) || strings.ContainsAny(input, "\r\n") {
		return err
	}
	if se.Offset > len(input) {
		return err
	}
	col := utf8.RuneCountInString(input[:se.Offset])
	return fmt.Errorf("%w\n  %s\n  %s^", err, input, strings.Repeat(" ", col))
}
