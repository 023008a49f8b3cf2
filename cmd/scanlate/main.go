package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/inkbound/scanlate/internal/detection"
	"github.com/inkbound/scanlate/internal/imaging"
	"github.com/inkbound/scanlate/internal/ocr"
	"github.com/inkbound/scanlate/internal/pipeline"
	"github.com/inkbound/scanlate/internal/project"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Progress goes to stderr; stdout is for command output.
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime)

	// Optional .env with defaults like SCANLATE_LANGUAGE.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "--version", "-v", "version":
		fmt.Printf("scanlate %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return
	case "--help", "-h", "help":
		usage()
		return
	case "batch":
		err = runBatch(os.Args[2:])
	case "detect-area":
		err = runDetectArea(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "overlay":
		err = runOverlay(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Println("scanlate - OCR-assisted comic translation tool")
	fmt.Println()
	fmt.Println("Usage: scanlate <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  batch        Run text detection over a project's pages")
	fmt.Println("  detect-area  Run detection inside one rectangle of a page")
	fmt.Println("  import       Import a translation profile from a JSON file")
	fmt.Println("  overlay      Write diagnostic overlay images for detected regions")
	fmt.Println("  info         Print a project archive summary")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables (also read from a local .env file):")
	fmt.Println("  SCANLATE_LANGUAGE    Tesseract language code (default: eng)")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func addConfigFlags(fs *flag.FlagSet, cfg *pipeline.Config) {
	fs.Float64Var(&cfg.ContrastAdjust, "contrast", cfg.ContrastAdjust, "contrast adjustment (0 disables)")
	fs.IntVar(&cfg.ResizeThreshold, "resize", cfg.ResizeThreshold, "max working width in px (0 disables downscale)")
	fs.Float64Var(&cfg.MinHeight, "min-height", cfg.MinHeight, "minimum region height in px")
	fs.Float64Var(&cfg.MaxHeight, "max-height", cfg.MaxHeight, "maximum region height in px")
	fs.Float64Var(&cfg.MinConfidence, "min-confidence", cfg.MinConfidence, "minimum detection confidence (0-1)")
	fs.Float64Var(&cfg.MergeDistance, "merge-distance", cfg.MergeDistance, "merge distance threshold in px")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "engine batch size hint")
	fs.StringVar(&cfg.Decoder, "decoder", cfg.Decoder, "engine decoder hint")
}

// openStore loads an archive or builds a fresh project from a directory of
// page images.
func openStore(archive, imagesDir string) (*project.Store, error) {
	switch {
	case archive != "":
		return project.Load(archive)
	case imagesDir != "":
		return project.NewFromDir(imagesDir)
	default:
		return nil, fmt.Errorf("either -project or -images is required")
	}
}

func runBatch(args []string) error {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	archive := fs.String("project", "", "project archive to process")
	imagesDir := fs.String("images", "", "directory of page images for a fresh project")
	out := fs.String("out", "", "output archive path (default: the -project path)")
	lang := fs.String("lang", envOr("SCANLATE_LANGUAGE", "eng"), "detection language code")
	cfg := pipeline.DefaultConfig()
	addConfigFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	outPath := *out
	if outPath == "" {
		outPath = *archive
	}
	if outPath == "" {
		return fmt.Errorf("-out is required when starting from -images")
	}

	store, err := openStore(*archive, *imagesDir)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := ocr.NewTesseract(*lang)
	if err != nil {
		return err
	}
	defer engine.Close()

	// A fresh run replaces all prior batch results; manual regions survive.
	store.ClearStandardResults()

	progress := func(p float64) {
		fmt.Fprintf(os.Stderr, "\rprogress: %5.1f%%", p)
	}
	coord := pipeline.NewCoordinator(engine, cfg, store, progress)
	next, err := coord.Run(context.Background(), store.Images(), store.NextRowNumber())
	fmt.Fprintln(os.Stderr)
	store.SetNextRowNumber(next)
	if err != nil {
		return err
	}
	if store.OriginalLanguage() == "" {
		store.SetOriginalLanguage(*lang)
	}

	log.Printf("batch %s: %d regions across %d pages", coord.State(), len(store.VisibleRegions()), len(store.Images()))
	return store.Save(outPath)
}

// runDetectArea OCRs one hand-specified rectangle of a page and stores the
// results as manual regions with fractional row numbers, leaving every
// existing row number untouched.
func runDetectArea(args []string) error {
	fs := flag.NewFlagSet("detect-area", flag.ExitOnError)
	archive := fs.String("project", "", "project archive to modify")
	page := fs.String("page", "", "page image basename")
	rect := fs.String("rect", "", "area as minX,minY,maxX,maxY in original pixels")
	lang := fs.String("lang", envOr("SCANLATE_LANGUAGE", "eng"), "detection language code")
	out := fs.String("out", "", "output archive path (default: the -project path)")
	cfg := pipeline.DefaultConfig()
	addConfigFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" || *page == "" || *rect == "" {
		return fmt.Errorf("-project, -page and -rect are required")
	}

	area, err := parseRect(*rect)
	if err != nil {
		return err
	}

	store, err := project.Load(*archive)
	if err != nil {
		return err
	}
	defer store.Close()

	var pagePath string
	for _, p := range store.Images() {
		if filepath.Base(p) == *page {
			pagePath = p
			break
		}
	}
	if pagePath == "" {
		return fmt.Errorf("page %q is not part of the project", *page)
	}

	engine, err := ocr.NewTesseract(*lang)
	if err != nil {
		return err
	}
	defer engine.Close()

	img, err := imaging.NewCache().Load(pagePath)
	if err != nil {
		return err
	}

	detected, err := pipeline.DetectArea(context.Background(), engine, cfg, img, area, *page)
	if err != nil {
		return err
	}

	added := 0
	for _, r := range pipeline.ToProjectRegions(detected) {
		rn, err := store.AllocateManualRowNumber(r.Filename, r.Coordinates.MinY())
		if err != nil {
			return err
		}
		r.RowNumber = rn
		if err := store.AddManualRegion(r); err != nil {
			return err
		}
		added++
	}
	log.Printf("added %d manual regions on %s", added, *page)

	outPath := *out
	if outPath == "" {
		outPath = *archive
	}
	return store.Save(outPath)
}

// parseRect parses "minX,minY,maxX,maxY" into a non-empty rectangle.
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("rect must be minX,minY,maxX,maxY, got %q", s)
	}
	vals := make([]int, 4)
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("bad rect value %q", part)
		}
		vals[i] = v
	}
	r := image.Rect(vals[0], vals[1], vals[2], vals[3])
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("rect %q is empty", s)
	}
	return r, nil
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	archive := fs.String("project", "", "project archive to modify")
	profile := fs.String("profile", "", "profile name to create or overwrite")
	file := fs.String("file", "", "JSON file: {filename: {rowNumber: text}}")
	out := fs.String("out", "", "output archive path (default: the -project path)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" || *profile == "" || *file == "" {
		return fmt.Errorf("-project, -profile and -file are required")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var translations map[string]map[string]string
	if err := json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to parse %s: %w", *file, err)
	}

	store, err := project.Load(*archive)
	if err != nil {
		return err
	}
	defer store.Close()

	store.AddProfile(*profile, translations)

	outPath := *out
	if outPath == "" {
		outPath = *archive
	}
	log.Printf("imported profile %q over %d regions", *profile, len(store.VisibleRegions()))
	return store.Save(outPath)
}

func runOverlay(args []string) error {
	fs := flag.NewFlagSet("overlay", flag.ExitOnError)
	archive := fs.String("project", "", "project archive to render")
	outDir := fs.String("outdir", "overlays", "directory for overlay PNGs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("-project is required")
	}

	store, err := project.Load(*archive)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	cache := imaging.NewCache()
	for _, page := range store.Images() {
		base := filepath.Base(page)
		img, err := cache.Load(page)
		if err != nil {
			return err
		}
		overlay := imaging.RenderOverlay(img, regionsForPage(store, base))

		name := strings.TrimSuffix(base, filepath.Ext(base)) + ".overlay.png"
		f, err := os.Create(filepath.Join(*outDir, name))
		if err != nil {
			return err
		}
		if err := png.Encode(f, overlay); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		cache.Evict(page)
	}
	return nil
}

// regionsForPage maps a page's stored regions back into pipeline form for
// rendering.
func regionsForPage(store *project.Store, filename string) []detection.Region {
	var out []detection.Region
	for _, r := range store.VisibleRegions() {
		if r.Filename != filename {
			continue
		}
		conf := 0.0
		if r.Confidence != nil {
			conf = *r.Confidence
		}
		out = append(out, detection.Region{
			Quad:       r.Coordinates,
			Text:       store.DisplayText(r),
			Confidence: conf,
			Filename:   r.Filename,
			RowNumber:  r.RowNumber,
		})
	}
	return out
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	archive := fs.String("project", "", "project archive to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *archive == "" {
		return fmt.Errorf("-project is required")
	}

	store, err := project.Load(*archive)
	if err != nil {
		return err
	}
	defer store.Close()

	visible := store.VisibleRegions()
	manual := 0
	for _, r := range visible {
		if r.IsManual {
			manual++
		}
	}

	fmt.Printf("Project:          %s\n", *archive)
	fmt.Printf("Pages:            %d\n", len(store.Images()))
	fmt.Printf("Regions:          %d visible (%d total, %d manual)\n",
		len(visible), len(store.Regions()), manual)
	fmt.Printf("Profiles:         %s\n", strings.Join(store.Profiles(), ", "))
	fmt.Printf("Active profile:   %s\n", store.ActiveProfile())
	fmt.Printf("Source language:  %s\n", store.OriginalLanguage())
	fmt.Printf("Next row number:  %d\n", store.NextRowNumber())
	return nil
}
