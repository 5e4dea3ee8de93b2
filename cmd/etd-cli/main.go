package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/etdget/etd-downloader/internal/browser"
	"github.com/etdget/etd-downloader/internal/download"
	"github.com/etdget/etd-downloader/internal/model"
)

// Environment variable defaults, loaded from .env when present
const (
	EnvOutputDir   = "ETD_OUTPUT_DIR"
	EnvMaxParallel = "ETD_MAX_PARALLEL"
)

const (
	DefaultParallel       = 2
	DefaultTimeoutSeconds = 60
)

// urlList collects repeated -u flags
type urlList []string

func (u *urlList) String() string {
	return strings.Join(*u, ", ")
}

func (u *urlList) Set(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("empty URL")
	}
	*u = append(*u, value)
	return nil
}

func main() {
	_ = godotenv.Load()

	var urls urlList
	flag.Var(&urls, "u", "viewer URL to fetch (repeatable)")
	urlFile := flag.String("f", "", "file with viewer URLs, one per line")
	outputDir := flag.String("o", envOr(EnvOutputDir, "."), "output directory")
	parallel := flag.Int("p", envIntOr(EnvMaxParallel, DefaultParallel), "max parallel fetches")
	timeout := flag.Int("timeout", DefaultTimeoutSeconds, "per-document timeout in seconds")
	headed := flag.Bool("headed", false, "show the browser window")
	overwrite := flag.Bool("overwrite", false, "overwrite existing files")
	flag.Parse()

	if *urlFile != "" {
		fileURLs, err := readURLFile(*urlFile)
		if err != nil {
			log.Fatalf("read url file: %v", err)
		}
		urls = append(urls, fileURLs...)
	}
	urls = append(urls, flag.Args()...)

	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "no URLs given; use -u, -f, or positional arguments")
		flag.Usage()
		os.Exit(2)
	}

	if err := browser.Install(); err != nil {
		log.Fatalf("install browser: %v", err)
	}
	driver, err := browser.NewDriver(!*headed)
	if err != nil {
		log.Fatalf("start browser: %v", err)
	}
	defer driver.Close()

	svc := download.NewService(driver)
	svc.SetFetchTimeout(time.Duration(*timeout) * time.Second)
	svc.SetOverwrite(*overwrite)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := svc.Run(ctx, urls, *outputDir, *parallel)
	if err != nil {
		log.Fatalf("start run: %v", err)
	}

	bar := progressbar.NewOptions(len(urls),
		progressbar.OptionSetDescription("fetching"),
		progressbar.OptionSetItsString("doc"),
		progressbar.OptionShowIts(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	for ev := range run.Events() {
		if !ev.Status.IsTerminal() {
			continue
		}
		bar.Add(1)
		printOutcome(ev.Task)
	}
	bar.Finish()
	fmt.Println()

	succeeded, failed, cancelled := run.Summary()
	fmt.Printf("done: %d saved, %d failed, %d cancelled\n", succeeded, failed, cancelled)
	if failed > 0 || cancelled > 0 {
		os.Exit(1)
	}
}

// printOutcome writes a one-line result for a finished task
func printOutcome(task *model.BatchTask) {
	switch task.Status {
	case model.TaskStatusSucceeded:
		fmt.Printf("\nok   %s (%d bytes)\n", task.OutputPath, task.FileSize)
	case model.TaskStatusFailed:
		fmt.Printf("\nfail %s: %s (%s)\n", task.GetDisplayTitle(), task.LastError, task.Kind)
	case model.TaskStatusCancelled:
		fmt.Printf("\nskip %s: cancelled\n", task.GetDisplayTitle())
	}
}

// readURLFile reads URLs one per line, skipping blanks and # comments
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
