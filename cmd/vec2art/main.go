package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/term"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/robmcdonald5/vec2art-sub012/utils"
	"github.com/robmcdonald5/vec2art-sub012/vectorize"
)

const banner = `
┬  ┬┌─┐┌─┐┌─┐┌─┐┬─┐┌┬┐
└┐┌┘├┤ │  ┌─┘├─┤├┬┘ │
 └┘ └─┘└─┘└─┘┴ ┴┴└─ ┴

Raster image to SVG line art converter.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

const (
	successColor = "\x1b[92m"
	errorColor   = "\x1b[31m"
	defaultColor = "\x1b[0m"
)

// Version indicates the current build version.
var Version string

func main() {
	var (
		// Flags
		source      = flag.String("in", pipeName, "Source image")
		destination = flag.String("out", pipeName, "Destination SVG file")
		backend     = flag.String("backend", "edge", "Tracing backend: edge|centerline|superpixel|dots")
		detail      = flag.Float64("detail", 0.5, "Detail level between 0 and 1")
		strokeWidth = flag.Float64("stroke", 1.2, "Base stroke width in pixels")
		noise       = flag.Bool("noise", false, "Apply noise filtering before tracing")
		preset      = flag.String("preset", "none", "Hand-drawn preset: none|subtle|medium|strong|sketchy")
		seed        = flag.Int64("seed", 42, "Seed for the randomized stages")
		configFile  = flag.String("config", "", "Configuration file (json, yaml or toml)")
		preview     = flag.String("preview", "", "Render a PNG preview next to the SVG output")
		statsFile   = flag.String("stats", "", "Write conversion statistics as json (`-` for stdout)")
		maxSize     = flag.Int("max-size", 2048, "Downscale images whose long edge exceeds this")
		threads     = flag.Int("threads", 0, "Worker count for parallel stages (0 = all CPUs)")
		verbose     = flag.Bool("v", false, "Enable debug logging")
	)

	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, fmt.Sprintf(banner, Version))
		flag.PrintDefaults()
	}
	flag.Parse()

	if *verbose {
		vectorize.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	b, err := vectorize.ParseBackend(*backend)
	if err != nil {
		log.Fatalf("%s%v%s", errorColor, err, defaultColor)
	}

	cfg := vectorize.DefaultConfig(b)
	cfg.Detail = *detail
	cfg.StrokeWidth = *strokeWidth
	cfg.NoiseFiltering = *noise
	cfg.Artistic.Preset = vectorize.Preset(*preset)
	cfg.Seed = *seed
	cfg.Performance.MaxImageSize = *maxSize
	cfg.Performance.ThreadCount = *threads

	if *configFile != "" {
		if err := loadConfigFile(*configFile, cfg); err != nil {
			log.Fatalf("%sCould not load the config file: %v%s", errorColor, err, defaultColor)
		}
	}

	start := time.Now()

	// Progress indicator
	ind := utils.NewProgressIndicator("Vectorizing...", time.Millisecond*100)
	cfg.Progress = func(u vectorize.ProgressUpdate) {
		ind.SetMessage(fmt.Sprintf("Vectorizing... %s (%d%%)", u.Stage, int(u.Fraction*100)))
	}
	ind.Start()

	res, err := convert(*source, cfg)
	if err != nil {
		ind.StopMsg = fmt.Sprintf("Vectorizing... %sfailed ✗%s\n", errorColor, defaultColor)
		ind.Stop()
		log.Fatalf("Conversion error: %s%v%s", errorColor, err, defaultColor)
	}

	ind.StopMsg = fmt.Sprintf("Vectorizing... %sfinished ✔%s", successColor, defaultColor)
	ind.Stop()

	if err := writeSVG(*destination, res.SVG); err != nil {
		log.Fatalf("Error writing the SVG output: %s%v%s", errorColor, err, defaultColor)
	}

	if *preview != "" {
		if err := writePreview(*preview, res); err != nil {
			log.Fatalf("Error rendering the preview: %s%v%s", errorColor, err, defaultColor)
		}
	}

	if *statsFile != "" {
		var out io.Writer = os.Stdout
		if *statsFile != pipeName {
			f, err := os.Create(*statsFile)
			if err != nil {
				log.Fatalf("%sCould not create the stats file: %v%s", errorColor, err, defaultColor)
			}
			defer f.Close()
			out = f
		}
		if err := json.NewEncoder(out).Encode(res.Stats); err != nil {
			log.Fatalf("Error encoding the stats: %v", err)
		}
	}

	total := res.Stats.Strokes + res.Stats.Fills + res.Stats.Dots
	log.Printf("\n%s%d%s primitive(s) emitted, %d bytes of SVG", successColor, total, defaultColor, res.Stats.SVGBytes)
	log.Printf("\nExecution time: %s%.2fs%s\n", successColor, time.Since(start).Seconds(), defaultColor)
}

// convert reads the source image and runs the vectorization pipeline.
func convert(source string, cfg *vectorize.Config) (*vectorize.Result, error) {
	var srcFile io.Reader
	if source == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			log.Fatalln("`-` should be used with a pipe for stdin")
		}
		srcFile = os.Stdin
	} else {
		file, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		srcFile = file
	}

	src, err := vectorize.DecodeImage(srcFile)
	if err != nil {
		return nil, err
	}
	return vectorize.Vectorize(context.Background(), src, cfg)
}

// loadConfigFile overlays values from a viper-supported config file on top
// of the flag-derived configuration.
func loadConfigFile(path string, cfg *vectorize.Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	if b := v.GetString("backend"); b != "" {
		parsed, err := vectorize.ParseBackend(b)
		if err != nil {
			return err
		}
		if parsed != cfg.Backend {
			*cfg = *vectorize.DefaultConfig(parsed)
		}
	}
	return v.Unmarshal(cfg)
}

func writeSVG(destination string, svg []byte) error {
	if destination == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			log.Fatalln("`-` should be used with a pipe for stdout")
		}
		_, err := os.Stdout.Write(svg)
		return err
	}
	if ext := strings.ToLower(filepath.Ext(destination)); ext != ".svg" {
		return fmt.Errorf("output file type not supported: %v", ext)
	}
	return os.WriteFile(destination, svg, 0644)
}

func writePreview(path string, res *vectorize.Result) error {
	if strings.ToLower(filepath.Ext(path)) != ".png" {
		return fmt.Errorf("preview must be a png file: %v", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return res.RenderPNG(f, 1)
}
