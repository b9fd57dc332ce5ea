// Command svgpuppet animates an SVG puppet with a sequence
// of PoseNet frames, and renders each frame to PNG files or
// to the pages of a PDF file.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/benoitkugler/svgpuppet/pose"
	"github.com/benoitkugler/svgpuppet/puppet"
	"github.com/benoitkugler/svgpuppet/svgpdf"
	"github.com/benoitkugler/svgpuppet/svgraster"
	"github.com/benoitkugler/svgpuppet/svgscene"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("[svgpuppet] ")
	start := time.Now()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: svgpuppet -svg puppet.svg -poses frames.json [-out dir|file.pdf]\n")
		flag.PrintDefaults()
	}
	svgPath := flag.String("svg", "", "puppet illustration: file, URL or inline SVG")
	posesPath := flag.String("poses", "", "JSON array of frames, each one an array of PoseNet poses")
	configPath := flag.String("config", "", "optional YAML configuration")
	out := flag.String("out", "out", "output directory (png) or file (pdf)")
	format := flag.String("format", "", "png or pdf (default: from -out)")
	size := flag.Int("size", 0, "canvas size in pixels, overriding the configuration")
	flag.Parse()

	if *svgPath == "" || *posesPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := puppet.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = puppet.LoadConfig(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	if *size > 0 {
		cfg.Canvas = puppet.Canvas{Width: float64(*size), Height: float64(*size)}
	}

	if *format == "" {
		*format = "png"
		if strings.EqualFold(filepath.Ext(*out), ".pdf") {
			*format = "pdf"
		}
	}
	if *format != "png" && *format != "pdf" {
		log.Fatalf("unsupported format %q", *format)
	}

	frames, err := readFrames(*posesPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stage := puppet.NewStage(cfg)
	if err = stage.Load(ctx, puppet.ParseSource(*svgPath)); err != nil {
		log.Fatal(err)
	}
	log.Printf("loaded %s: %d bones", stage.Puppet().Source, len(stage.Puppet().Skeleton().Bones))

	if err = render(ctx, stage, frames, cfg.Canvas, *format, *out); err != nil {
		if ctx.Err() != nil {
			log.Printf("stopped: %v", ctx.Err())
		} else {
			log.Fatal(err)
		}
	}
	log.Printf("%d frames done in %s", len(frames), time.Since(start).Round(time.Millisecond))
}

func readFrames(path string) ([][]pose.Pose, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pose.DecodeFrames(f)
}

func render(ctx context.Context, stage *puppet.Stage, frames [][]pose.Pose, canvas puppet.Canvas, format, out string) error {
	var doc *svgpdf.Document
	if format == "pdf" {
		doc = svgpdf.NewDocument(canvas.Width, canvas.Height)
	} else if err := os.MkdirAll(out, os.ModePerm); err != nil {
		return err
	}

	var skipped, degraded int
	bar := pb.StartNew(len(frames))
	for i, poses := range frames {
		if err := ctx.Err(); err != nil {
			bar.Finish()
			return err
		}
		outcome, rep := stage.Frame(poses)
		switch {
		case outcome == puppet.Skipped:
			skipped++
		case rep.Degraded():
			degraded++
		}

		if doc != nil {
			doc.AddPage(func(d svgscene.Driver) { stage.Draw(d) })
		} else if err := writePNG(stage, canvas, filepath.Join(out, fmt.Sprintf("frame_%04d.png", i))); err != nil {
			bar.Finish()
			return err
		}
		bar.Increment()
	}
	bar.Finish()

	if skipped != 0 || degraded != 0 {
		log.Printf("%d frame(s) without pose, %d frame(s) with frozen bones", skipped, degraded)
	}
	if doc != nil {
		return doc.OutputFile(out)
	}
	return nil
}

func writePNG(stage *puppet.Stage, canvas puppet.Canvas, path string) error {
	img := svgraster.Rasterize(int(canvas.Width), int(canvas.Height), color.White, func(d svgscene.Driver) { stage.Draw(d) })
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err = svgraster.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
