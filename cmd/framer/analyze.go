package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/ayusman/framer/internal/guidance"
	"github.com/ayusman/framer/internal/log"
	"github.com/ayusman/framer/internal/perception"
	"github.com/ayusman/framer/internal/perception/cv"
)

var (
	analyzeStyle       string
	analyzeAspect      string
	analyzeOrientation string
	analyzeService     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir|image>...",
	Short: "Run guidance offline over still frames",
	Long:  "Run the guidance engine over image files in name order, as if they were consecutive camera frames, and print one JSON line per frame.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeStyle, "style", "s", "", "Composition style (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeAspect, "aspect", "", "Frame aspect for golden ratio: 9:16 or 3:4")
	analyzeCmd.Flags().StringVar(&analyzeOrientation, "orientation", "", "Golden ratio target quadrant")
	analyzeCmd.Flags().BoolVar(&analyzeService, "saliency-service", false, "Use the external saliency service when available")
	rootCmd.AddCommand(analyzeCmd)
}

// frameResult is one line of analyze output.
type frameResult struct {
	Index  int             `json:"index"`
	File   string          `json:"file"`
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Output guidance.Output `json:"output"`
}

var imageExts = []string{".jpg", ".jpeg", ".png", ".bmp"}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeStyle != "" {
		cfg.Style = analyzeStyle
	}
	if analyzeAspect != "" {
		cfg.Aspect = analyzeAspect
	}
	if analyzeOrientation != "" {
		cfg.Orientation = analyzeOrientation
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	style, params, err := cfg.GuidanceStyle()
	if err != nil {
		return err
	}

	files, err := collectImages(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no image files found")
	}

	perc := perception.DefaultConfig()
	perc.MaxScanPixels = cfg.MaxScanPixels

	var opts []cv.Option
	if analyzeService {
		svc, err := cv.NewServiceSaliency(cfg.SaliencyScript)
		if err != nil {
			log.Warn("saliency service not available, using gradient saliency", "reason", err)
		} else {
			opts = append(opts, cv.WithSaliencySource(svc))
		}
	}
	adapter := cv.NewAdapter(perc, opts...)
	defer adapter.Close()

	sel, err := guidance.NewSelector(adapter, style, params)
	if err != nil {
		return err
	}
	defer sel.Close()
	sel.SetMaxScanPixels(perc.MaxScanPixels)

	enc := json.NewEncoder(cmd.OutOrStdout())
	for i, file := range files {
		mat := gocv.IMRead(file, gocv.IMReadColor)
		if mat.Empty() {
			mat.Close()
			log.Warn("skipping unreadable image", "file", file)
			continue
		}

		out := sel.Process(cv.NewFrame(&mat, uint64(i+1)))
		result := frameResult{Index: i, File: file, Width: mat.Cols(), Height: mat.Rows(), Output: out}
		mat.Close()

		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}
	return nil
}

// collectImages expands directories to their image files, sorted by name.
// Files named explicitly are kept in argument order.
func collectImages(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", arg, err)
		}
		var dirFiles []string
		for _, e := range entries {
			if e.IsDir() || !isImage(e.Name()) {
				continue
			}
			dirFiles = append(dirFiles, filepath.Join(arg, e.Name()))
		}
		slices.Sort(dirFiles)
		files = append(files, dirFiles...)
	}
	return files, nil
}

func isImage(name string) bool {
	return slices.Contains(imageExts, strings.ToLower(filepath.Ext(name)))
}
