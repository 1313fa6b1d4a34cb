// Command metardump parses raw METAR/TAF text and prints the decoded
// structure as JSON — a debug aid for inspecting what the engine's parsers
// make of a given report, one report per line.
//
// Usage:
//
//	metardump [-input FILE] [-kind metar|taf] [-pretty]
//
// Input defaults to stdin, one raw report per line. Blank lines are
// skipped. Lines that fail to parse are reported on stderr and omitted
// from the output rather than aborting the run.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"fsweatherbridge/internal/metar"
	"fsweatherbridge/internal/taf"
)

type dumpOut struct {
	Raw   string        `json:"raw"`
	Metar *metar.Parsed `json:"metar,omitempty"`
	Taf   *taf.Parsed   `json:"taf,omitempty"`
}

func main() {
	inPath := flag.String("input", "", "input file (default: stdin)")
	kind := flag.String("kind", "metar", "report kind: metar or taf")
	pretty := flag.Bool("pretty", false, "pretty-print JSON output")
	flag.Parse()

	kindLower := strings.ToLower(*kind)
	if kindLower != "metar" && kindLower != "taf" {
		fmt.Fprintf(os.Stderr, "metardump: unknown -kind %q (want metar or taf)\n", *kind)
		os.Exit(2)
	}

	var r io.Reader = os.Stdin
	if *inPath != "" {
		f, err := os.Open(*inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "metardump: open input: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		r = f
	}

	now := time.Now().UTC()
	scanner := bufio.NewScanner(r)
	var out []dumpOut
	var failed int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry := dumpOut{Raw: line}
		switch kindLower {
		case "metar":
			p, err := metar.Parse(line, now)
			if err != nil {
				fmt.Fprintf(os.Stderr, "metardump: parse error: %v\n", err)
				failed++
				continue
			}
			entry.Metar = p
			if issued, ok := p.IssuedAt.Get(); ok {
				fmt.Fprintf(os.Stderr, "metardump: %s issued %s\n", p.ICAO, humanize.Time(issued))
			}
		case "taf":
			p, err := taf.Parse(line, now)
			if err != nil {
				fmt.Fprintf(os.Stderr, "metardump: parse error: %v\n", err)
				failed++
				continue
			}
			entry.Taf = p
		}
		out = append(out, entry)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "metardump: read input: %v\n", err)
		os.Exit(1)
	}

	var enc []byte
	var err error
	if *pretty {
		enc, err = json.MarshalIndent(out, "", "  ")
	} else {
		enc, err = json.Marshal(out)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "metardump: encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(enc))

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "metardump: %d line(s) failed to parse\n", failed)
	}
}
