package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/rapport/internal/config"
	"github.com/rapport/internal/progression"
)

// SimulateCommand returns the CLI command that replays a transcript file
// through a controller and prints the stage trajectory.
func SimulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Replay a transcript file and print the stage trajectory",
		ArgsUsage: "FILE",
		Action:    runSimulate,
	}
}

// transcriptEvent is one parsed transcript line.
type transcriptEvent struct {
	kind  string // "in", "out", "flag", "counter"
	at    time.Time
	text  string
	name  string
	value string
}

func runSimulate(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one transcript file argument")
	}

	pcfg := progression.DefaultConfig()
	if cfg, err := config.LoadConfig(c.String("config")); err == nil {
		if verr := config.Validate(cfg); verr == nil {
			pcfg = cfg.ProgressionConfig()
		}
	}

	file, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer file.Close()

	ctrl, err := progression.New(pcfg, "simulate", time.Now())
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		ev, ok, err := parseTranscriptLine(scanner.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !ok {
			continue
		}

		switch ev.kind {
		case "in":
			snap := ctrl.RecordIncoming(ev.text, ev.at)
			fmt.Printf("%-12s trust=%5.1f openness=%5.1f meaningful=%d  %q\n",
				snap.Stage, snap.Scores.Trust, snap.Scores.Openness, snap.ConsecutiveMeaningful, truncate(ev.text, 40))
		case "out":
			ctrl.RecordOutgoing(ev.text, ev.at)
		case "flag":
			ctrl.SetFlag(ev.name, ev.value == "true")
		case "counter":
			n, err := strconv.ParseFloat(ev.value, 64)
			if err != nil {
				return fmt.Errorf("line %d: bad counter value %q", lineNo, ev.value)
			}
			ctrl.SetCounter(ev.name, n)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read transcript: %w", err)
	}

	fmt.Println()
	fmt.Println("Stage history:")
	for _, change := range ctrl.History() {
		fmt.Printf("  %s  %s\n", change.At.Format(time.RFC3339), change.Stage)
	}
	return nil
}

// parseTranscriptLine parses one transcript line. Formats:
//
//	in  <RFC3339> <text>
//	out <RFC3339> <text>
//	flag <name> <true|false>
//	counter <name> <number>
//
// Blank lines and lines starting with # are skipped.
func parseTranscriptLine(line string) (transcriptEvent, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return transcriptEvent{}, false, nil
	}

	fields := strings.SplitN(line, " ", 3)
	switch fields[0] {
	case "in", "out":
		if len(fields) < 3 {
			return transcriptEvent{}, false, fmt.Errorf("%s line needs a timestamp and text", fields[0])
		}
		at, err := time.Parse(time.RFC3339, fields[1])
		if err != nil {
			return transcriptEvent{}, false, fmt.Errorf("bad timestamp %q: %w", fields[1], err)
		}
		return transcriptEvent{kind: fields[0], at: at, text: fields[2]}, true, nil
	case "flag", "counter":
		if len(fields) < 3 {
			return transcriptEvent{}, false, fmt.Errorf("%s line needs a name and value", fields[0])
		}
		return transcriptEvent{kind: fields[0], name: fields[1], value: fields[2]}, true, nil
	default:
		return transcriptEvent{}, false, fmt.Errorf("unknown directive %q", fields[0])
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
