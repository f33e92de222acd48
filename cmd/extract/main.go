// Command extract prints blog metadata as JSON lines for URLs given as
// arguments, or one per line on stdin when no arguments are given.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samvad-hq/blogmeta/internal/app"
	"github.com/samvad-hq/blogmeta/internal/config"
	"github.com/samvad-hq/blogmeta/internal/logger"
)

func main() {
	failed, err := run(os.Args[1:], os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract failed: %v\n", err)
		os.Exit(1)
	}
	if failed > 0 {
		os.Exit(2)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return 0, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.InitTo(cfg, os.Stderr)
	if err != nil {
		return 0, fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	urls := args
	if len(urls) == 0 {
		if urls, err = readLines(stdin); err != nil {
			return 0, err
		}
	}
	if len(urls) == 0 {
		return 0, fmt.Errorf("no urls given")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewExtract(cfg, log)
	if err != nil {
		return 0, err
	}
	return runner.Run(ctx, urls, stdout)
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return out, nil
}
