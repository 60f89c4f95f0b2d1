// exrcheck validates OpenEXR scanline files for header- and decode-level
// correctness. Tiled and deep data are out of this core's scope: files
// carrying either flag are header-checked only, with a note that full
// decode validation was skipped.
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/openexr-go/exrcore/exr"
)

const version = "1.0.0"

// issue is a single validation problem found in a file.
type issue struct {
	severity string // "error" or "warning"
	message  string
}

// result collects every issue found for one file.
type result struct {
	filename string
	issues   []issue
	checks   []string
}

func (r *result) isValid() bool {
	for _, i := range r.issues {
		if i.severity == "error" {
			return false
		}
	}
	return true
}

func (r *result) addError(format string, args ...interface{}) {
	r.issues = append(r.issues, issue{severity: "error", message: fmt.Sprintf(format, args...)})
}

func (r *result) addWarning(format string, args ...interface{}) {
	r.issues = append(r.issues, issue{severity: "warning", message: fmt.Sprintf(format, args...)})
}

func main() {
	var quiet, strict bool

	root := &cobra.Command{
		Use:     "exrcheck <filename> [<filename> ...]",
		Short:   "Validate OpenEXR scanline files for correctness",
		Version: version,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, quiet, strict)
		},
		SilenceUsage: true,
	}
	registerFlags(root.Flags(), &quiet, &strict)

	if err := root.Execute(); err != nil {
		os.Exit(2)
	}
}

// registerFlags binds the quiet/strict flags onto fs, taking the
// *pflag.FlagSet directly rather than cobra's wrapper so the binding
// can be exercised on its own.
func registerFlags(fs *pflag.FlagSet, quiet, strict *bool) {
	fs.BoolVarP(quiet, "quiet", "q", false, "only output errors; exit code indicates pass/fail")
	fs.BoolVarP(strict, "strict", "s", false, "enforce spec recommendations in addition to correctness checks")
}

// run validates every named file and sets the process exit code: 0 if
// all files validated clean, 1 if any file had errors, 2 if a file
// could not even be opened.
func run(files []string, quiet, strict bool) error {
	validCount := 0
	openFailure := false

	for _, filename := range files {
		r, err := validateFile(filename, strict)
		if err != nil {
			if !quiet {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", filename, err)
			}
			openFailure = true
			continue
		}
		if r.isValid() {
			validCount++
		}
		printResult(r, quiet)
	}

	if len(files) > 1 && !quiet {
		fmt.Printf("\nSummary: %d of %d files valid\n", validCount, len(files))
	}

	switch {
	case openFailure:
		os.Exit(2)
	case validCount < len(files):
		os.Exit(1)
	}
	return nil
}

func printResult(r *result, quiet bool) {
	if quiet {
		for _, i := range r.issues {
			if i.severity == "error" {
				fmt.Fprintf(os.Stderr, "%s: %s\n", r.filename, i.message)
			}
		}
		return
	}

	if r.isValid() {
		fmt.Printf("%s: OK\n", r.filename)
	} else {
		fmt.Printf("%s: INVALID\n", r.filename)
	}
	for _, i := range r.issues {
		fmt.Printf("  [%s] %s\n", i.severity, i.message)
	}
	if len(r.issues) > 0 {
		fmt.Printf("  checks performed: %v\n", r.checks)
	}
}

// validateFile opens filename and runs every header, window, channel,
// compression, and (for non-tiled, non-deep parts) full-decode check
// against it. The returned error is non-nil only when the file could
// not be read or parsed at all; anything short of that is reported as
// an issue on the returned result instead.
func validateFile(filename string, strict bool) (*result, error) {
	r := &result{filename: filename}

	f, err := exr.OpenFile(filename)
	if err != nil {
		r.checks = append(r.checks, "open")
		var exrErr *exr.Error
		if errors.As(err, &exrErr) {
			r.addError("%s: %s", exrErr.Code, exrErr.Message)
			return r, nil
		}
		return nil, err
	}
	defer f.Close()

	r.checks = append(r.checks, "header attributes", "windows", "channels", "compression")
	for part := 0; part < f.NumParts(); part++ {
		h := f.Header(part)
		validateHeader(h, part, r, strict)
		validateWindows(h, part, r, strict)
		validateChannels(h, part, r, strict)
		validateCompression(h, part, f.IsDeep(), r, strict)
	}

	if f.IsTiled() || f.IsDeep() {
		r.addWarning("file is tiled or deep; decode validation is out of scope and was skipped")
	} else {
		r.checks = append(r.checks, "decode")
		for part := 0; part < f.NumParts(); part++ {
			validateDecode(f, part, r)
		}
	}

	if strict {
		r.checks = append(r.checks, "strict compliance")
		for part := 0; part < f.NumParts(); part++ {
			validateStrictCompliance(f.Header(part), part, r)
		}
	}

	return r, nil
}

func partPrefix(part int) string {
	if part == 0 {
		return ""
	}
	return fmt.Sprintf("part %d: ", part)
}

func validateHeader(h *exr.Header, part int, r *result, strict bool) {
	prefix := partPrefix(part)

	required := []string{
		exr.AttrNameChannels,
		exr.AttrNameCompression,
		exr.AttrNameDataWindow,
		exr.AttrNameDisplayWindow,
		exr.AttrNameLineOrder,
		exr.AttrNamePixelAspectRatio,
		exr.AttrNameScreenWindowCenter,
		exr.AttrNameScreenWindowWidth,
	}
	for _, name := range required {
		if !h.Has(name) {
			r.addError("%smissing required attribute: %s", prefix, name)
		}
	}

	if h.IsTiled() && !h.Has(exr.AttrNameTiles) {
		r.addError("%stiled image missing required 'tiles' attribute", prefix)
	}

	if !strict || !h.Has(exr.AttrNameType) {
		return
	}
	attr := h.Get(exr.AttrNameType)
	if attr == nil {
		return
	}
	typeStr, ok := attr.Value.(string)
	if !ok {
		return
	}
	valid := map[string]bool{
		exr.PartTypeScanline:     true,
		exr.PartTypeTiled:        true,
		exr.PartTypeDeepScanline: true,
		exr.PartTypeDeepTiled:    true,
	}
	if !valid[typeStr] {
		r.addWarning("%sunknown part type: %s", prefix, typeStr)
	}
}

func validateWindows(h *exr.Header, part int, r *result, strict bool) {
	prefix := partPrefix(part)
	dw := h.DataWindow()
	disp := h.DisplayWindow()

	if dw.Width() <= 0 || dw.Height() <= 0 {
		r.addError("%sdata window has invalid dimensions: %dx%d", prefix, dw.Width(), dw.Height())
	}
	if disp.Width() <= 0 || disp.Height() <= 0 {
		r.addError("%sdisplay window has invalid dimensions: %dx%d", prefix, disp.Width(), disp.Height())
	}

	if !strict {
		return
	}
	const maxReasonableSize = 1_000_000
	if dw.Width() > maxReasonableSize || dw.Height() > maxReasonableSize {
		r.addWarning("%sdata window has very large dimensions: %dx%d", prefix, dw.Width(), dw.Height())
	}
	if dw.Min.X < 0 || dw.Min.Y < 0 {
		r.addWarning("%sdata window has negative origin: (%d, %d)", prefix, dw.Min.X, dw.Min.Y)
	}
}

func validateChannels(h *exr.Header, part int, r *result, strict bool) {
	prefix := partPrefix(part)
	cl := h.Channels()
	if cl == nil || cl.Len() == 0 {
		r.addError("%sno channels defined", prefix)
		return
	}

	seen := make(map[string]bool, cl.Len())
	for i := 0; i < cl.Len(); i++ {
		c := cl.At(i)
		if seen[c.Name] {
			r.addError("%sduplicate channel name: %s", prefix, c.Name)
		}
		seen[c.Name] = true

		if c.Type > exr.PixelTypeFloat {
			r.addError("%schannel %s has invalid pixel type: %d", prefix, c.Name, c.Type)
		}
		if c.XSampling <= 0 || c.YSampling <= 0 {
			r.addError("%schannel %s has invalid sampling factors: (%d, %d)", prefix, c.Name, c.XSampling, c.YSampling)
		}

		if strict && c.XSampling > 16 || c.YSampling > 16 {
			r.addWarning("%schannel %s has unusually large sampling factors: (%d, %d)", prefix, c.Name, c.XSampling, c.YSampling)
		}
	}

	if strict {
		names := cl.Names()
		sorted := append([]string(nil), names...)
		sort.Strings(sorted)
		for i := range names {
			if names[i] != sorted[i] {
				r.addWarning("%schannels not in alphabetical order (spec recommends alphabetical)", prefix)
				break
			}
		}
	}
}

func validateCompression(h *exr.Header, part int, isDeep bool, r *result, strict bool) {
	prefix := partPrefix(part)
	comp := h.Compression()

	switch comp {
	case exr.CompressionNone, exr.CompressionRLE, exr.CompressionZIPS, exr.CompressionZIP,
		exr.CompressionPIZ, exr.CompressionPXR24, exr.CompressionB44, exr.CompressionB44A,
		exr.CompressionDWAA, exr.CompressionDWAB:
	default:
		r.addError("%sinvalid or unsupported compression type: %d", prefix, comp)
		return
	}

	if strict && comp.IsLossy() {
		r.addWarning("%susing lossy compression: %s", prefix, comp.String())
	}

	if isDeep {
		deepAllowed := map[exr.Compression]bool{
			exr.CompressionNone: true, exr.CompressionRLE: true,
			exr.CompressionZIPS: true, exr.CompressionZIP: true,
		}
		if !deepAllowed[comp] {
			r.addError("%sdeep data does not support %s compression", prefix, comp.String())
		}
	}
}

// validateDecode exercises this core's actual job: decoding every
// channel of the part into dense planes. A successful decode is the
// strongest validation this tool can offer; any typed *exr.Error is
// reported with its code for a precise diagnosis.
func validateDecode(f *exr.File, part int, r *result) {
	prefix := partPrefix(part)
	if _, err := exr.DecodePart(f, part); err != nil {
		var exrErr *exr.Error
		if errors.As(err, &exrErr) {
			r.addError("%sdecode failed [%s]: %s", prefix, exrErr.Code, exrErr.Message)
			return
		}
		r.addError("%sdecode failed: %v", prefix, err)
	}
}

func validateStrictCompliance(h *exr.Header, part int, r *result) {
	prefix := partPrefix(part)

	if par := h.PixelAspectRatio(); par <= 0 {
		r.addError("%spixel aspect ratio must be positive: %f", prefix, par)
	} else if par < 0.01 || par > 100 {
		r.addWarning("%sunusual pixel aspect ratio: %f", prefix, par)
	}

	if sww := h.ScreenWindowWidth(); sww <= 0 {
		r.addWarning("%sscreen window width should be positive: %f", prefix, sww)
	}

	if lo := h.LineOrder(); lo > exr.LineOrderRandom {
		r.addError("%sinvalid line order: %d", prefix, lo)
	} else if h.IsTiled() && lo != exr.LineOrderRandom {
		r.addWarning("%stiled images typically use random line order", prefix)
	}

	dw, disp := h.DataWindow(), h.DisplayWindow()
	if dw.Min.X < disp.Min.X || dw.Min.Y < disp.Min.Y || dw.Max.X > disp.Max.X || dw.Max.Y > disp.Max.Y {
		r.addWarning("%sdata window extends beyond display window (overscan)", prefix)
	}

	if h.Has("chromaticities") {
		if attr := h.Get("chromaticities"); attr != nil {
			if chrom, ok := attr.Value.(exr.Chromaticities); ok {
				checkChromaticity := func(name string, x, y float32) {
					if x < 0 || x > 1 || y < 0 || y > 1 {
						r.addWarning("%s%s chromaticity out of typical range", prefix, name)
					}
				}
				checkChromaticity("red primary", chrom.RedX, chrom.RedY)
				checkChromaticity("green primary", chrom.GreenX, chrom.GreenY)
				checkChromaticity("blue primary", chrom.BlueX, chrom.BlueY)
				checkChromaticity("white point", chrom.WhiteX, chrom.WhiteY)
			}
		}
	}
}
