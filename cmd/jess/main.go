package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"jess/internal/agent"
	"jess/internal/config"
)

func main() {
	var (
		interactive = flag.Bool("i", false, "start interactive mode")
		list        = flag.Bool("list", false, "list available videos")
		recommend   = flag.Bool("recommend", false, "get video recommendations")
		verbose     = flag.Bool("v", false, "enable verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: jess [flags] [question]\n\nexample: jess \"What did Andy say about AI bubbles?\"\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := config.Load()
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	agentCfg, err := config.LoadAgentConfig(cfg.AgentConfigPath)
	if err != nil {
		logger.Warn("agent config not loaded, using defaults", "error", err)
	}
	relay := agent.NewRelay(logger, agent.NewGateway(logger, cfg.OrcaURL, cfg.OrcaToken, 60*time.Second).WithLanguage(agentCfg.Response.Language), agentCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *interactive:
		runInteractive(ctx, relay, os.Stdin, os.Stdout)
	case *list:
		printResponse(os.Stdout, relay.Query(ctx, "list videos"))
	case *recommend:
		printResponse(os.Stdout, relay.Query(ctx, "recommendations"))
	case flag.NArg() > 0:
		res := relay.Query(ctx, strings.Join(flag.Args(), " "))
		printResponse(os.Stdout, res)
		if !res.Success {
			os.Exit(1)
		}
	default:
		runInteractive(ctx, relay, os.Stdin, os.Stdout)
	}
}

func runInteractive(ctx context.Context, relay *agent.Relay, in io.Reader, out io.Writer) {
	name, icon := relay.Name()
	fmt.Fprintf(out, "%s %s - Video Intelligence Agent\n", icon, name)
	fmt.Fprintln(out, "Ask about videos on markets, investments, and strategy.")
	fmt.Fprintln(out, "Type 'quit' or 'exit' to leave, 'help' for suggestions.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			break
		}
		query := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(query) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Fprintln(out, "Goodbye!")
			return
		case "?":
			query = "help"
		}
		if ctx.Err() != nil {
			break
		}
		printResponse(out, relay.Query(ctx, query))
	}
	fmt.Fprintln(out, "\nGoodbye!")
}

func printResponse(out io.Writer, res agent.Response) {
	if !res.Success {
		fmt.Fprintf(out, "Error: %s\n", res.Content)
		return
	}
	fmt.Fprintf(out, "\n%s\n", res.Content)

	if v := res.VideoInfo; v != nil {
		fmt.Fprintf(out, "\n📺 Watch now: %s\n   ⏱️ %s\n   🔗 %s\n", v.Title, v.Timestamp, v.URL)
	}
	if len(res.Examples) > 0 {
		fmt.Fprintln(out, "\nTry asking:")
		for i, ex := range res.Examples {
			if i == 3 {
				break
			}
			fmt.Fprintf(out, "  %s\n", ex)
		}
	}
}
