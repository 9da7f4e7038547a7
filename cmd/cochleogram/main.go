// Command cochleogram computes a gammatone cochleogram of a WAV file.
//
// The input is mixed to mono, passed through a gammatone filterbank, and
// each channel is reduced to its RMS over short frames. The result is
// written as CSV, one row per frame and one column per channel. The header
// row holds the channel center frequencies.
//
// Usage:
//
//	cochleogram input.wav output.csv
//	cochleogram -low 50 -high 8000 -channels 64 -frame 5ms speech.wav out.csv
//	cochleogram -overlap 0.5 -order 4 -bandwidth slaney1988 music.wav out.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tphakala/go-gammatone"
)

const (
	// Mono samples processed per filterbank call. Rounded down to a
	// whole number of frames at run time.
	chunkSize = 65536

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32

	// Conversion constants
	maxInt16         = 32767.0
	maxInt24         = 8388607.0
	maxInt32         = 2147483647.0
	progressInterval = 10 // Log progress every N%

	// CLI defaults
	defaultLowHz    = 100.0
	defaultHighHz   = 8000.0
	defaultChannels = 32
	defaultFrame    = 10 * time.Millisecond
	minRequiredArgs = 2
	percentScale    = 100
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Fatal("cochleogram failed")
	}
}

// options holds the parsed command line.
type options struct {
	inputPath  string
	outputPath string
	low        float64
	high       float64
	channels   int
	overlap    float64
	order      int
	bandwidth  string
	core       string
	frame      time.Duration
	parallel   bool
	rectify    bool
}

func run() error {
	low := flag.Float64("low", defaultLowHz, "Lowest center frequency in Hz")
	high := flag.Float64("high", defaultHighHz, "Highest center frequency in Hz (clamped below Nyquist)")
	channels := flag.Int("channels", defaultChannels, "Number of filterbank channels")
	overlap := flag.Float64("overlap", 0, "Channel spacing in ERB units (overrides -channels)")
	order := flag.Int("order", 4, "Gammatone filter order (1-16)")
	bandwidth := flag.String("bandwidth", gammatone.Glasberg1990.Name, "Bandwidth policy: glasberg1990, slaney1988, greenwood1990")
	coreName := flag.String("core", gammatone.CoreHoldsworth.String(), "Filter core: holdsworth, cooke1993, slaney1993, convolution")
	frame := flag.Duration("frame", defaultFrame, "RMS frame duration")
	parallel := flag.Bool("parallel", true, "Process channels in parallel")
	rectify := flag.Bool("rectify", false, "Half-wave rectify filter outputs before RMS")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.csv\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s speech.wav speech.csv                  # 32 channels, 100-8000 Hz\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -channels 64 -frame 5ms in.wav out.csv # Finer analysis\n", os.Args[0])
		return errors.New("insufficient arguments")
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	opts := options{
		inputPath:  args[0],
		outputPath: args[1],
		low:        *low,
		high:       *high,
		channels:   *channels,
		overlap:    *overlap,
		order:      *order,
		bandwidth:  *bandwidth,
		core:       *coreName,
		frame:      *frame,
		parallel:   *parallel,
		rectify:    *rectify,
	}

	logrus.WithFields(logrus.Fields{
		"input":     opts.inputPath,
		"output":    opts.outputPath,
		"bandwidth": opts.bandwidth,
		"core":      opts.core,
		"order":     opts.order,
		"frame":     opts.frame,
		"parallel":  opts.parallel,
	}).Debug("Starting cochleogram")

	start := time.Now()
	stats, err := cochleogramWAV(opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Analyzed %s -> %s\n", filepath.Base(opts.inputPath), filepath.Base(opts.outputPath))
	fmt.Printf("  %d Hz, %d channels in, %d filterbank channels\n",
		stats.rate, stats.inputChannels, stats.filterChannels)
	fmt.Printf("  %d samples -> %d frames\n", stats.samples, stats.frames)
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
		elapsed.Seconds(),
		float64(stats.samples)/float64(stats.rate)/elapsed.Seconds())

	return nil
}

type cochleogramStats struct {
	rate           int
	inputChannels  int
	filterChannels int
	samples        int64
	frames         int64
}

// cochleogramWAV streams the input file through the filterbank and writes
// the frame table.
func cochleogramWAV(opts options) (stats *cochleogramStats, err error) {
	input, err := openWAVInput(opts.inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	fb, err := newFilterbank(opts, float64(input.rate))
	if err != nil {
		return nil, err
	}

	frameSize := frameSamples(opts.frame, input.rate)
	chunk := max(chunkSize/frameSize, 1) * frameSize

	output, err := createCSVOutput(opts.outputPath, fb.CenterFrequencies())
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	buffers := newMonoBuffers(input, chunk)
	stats = &cochleogramStats{
		rate:           input.rate,
		inputChannels:  input.channels,
		filterChannels: fb.NbChannels(),
	}
	progress := newProgressTracker(input.totalSamples)

	emit := func(mono []float64) error {
		frames, err := gammatone.Cochleagram(fb, mono, frameSize)
		if err != nil {
			return fmt.Errorf("filterbank failed: %w", err)
		}
		stats.frames += int64(len(frames))
		return output.WriteFrames(frames)
	}

	for {
		n, err := input.decoder.PCMBuffer(buffers.intBuffer)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}

		frames := n / input.channels
		buffers.appendMono(buffers.intBuffer.Data[:frames*input.channels], input.channels)
		stats.samples += int64(frames)

		for len(buffers.pending) >= chunk {
			if err := emit(buffers.pending[:chunk]); err != nil {
				return nil, err
			}
			buffers.pending = append(buffers.pending[:0], buffers.pending[chunk:]...)
		}

		progress.reportIfNeeded(stats.samples)
		buffers.intBuffer.Data = buffers.intBuffer.Data[:cap(buffers.intBuffer.Data)]
	}

	if len(buffers.pending) > 0 {
		if err := emit(buffers.pending); err != nil {
			return nil, err
		}
	}

	logrus.WithFields(logrus.Fields{
		"samples": stats.samples,
		"frames":  stats.frames,
	}).Debug("Cochleogram complete")

	return stats, nil
}

// newFilterbank builds the filterbank described by opts for the given rate.
func newFilterbank(opts options, rate float64) (*gammatone.Filterbank, error) {
	policy, err := gammatone.BandwidthPolicyByName(opts.bandwidth)
	if err != nil {
		return nil, err
	}

	coreType := gammatone.CoreHoldsworth
	if opts.core != "" {
		if coreType, err = gammatone.CoreTypeByName(opts.core); err != nil {
			return nil, err
		}
	}

	high := clampHigh(opts.high, rate)
	if high != opts.high {
		logrus.WithFields(logrus.Fields{
			"requested": opts.high,
			"used":      high,
		}).Warn("High frequency clamped below Nyquist")
	}

	post := gammatone.PostOff
	if opts.rectify {
		post = gammatone.PostHalfWaveRectify
	}

	config := &gammatone.FilterbankConfig{
		SampleFrequency: rate,
		LowFrequency:    opts.low,
		HighFrequency:   high,
		EnableParallel:  opts.parallel,
		FilterOptions: gammatone.FilterOptions{
			Order:          opts.order,
			Bandwidth:      policy,
			Core:           coreType,
			Clipping:       true,
			PostProcessing: post,
		},
	}
	if opts.overlap > 0 {
		config.Overlap = opts.overlap
	} else {
		config.Channels = opts.channels
	}

	fb, err := gammatone.NewFilterbankWithConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create filterbank: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"channels": fb.NbChannels(),
		"low":      fb.LowFrequency(),
		"high":     fb.HighFrequency(),
		"overlap":  fb.OverlapFactor(),
	}).Info("Filterbank ready")

	return fb, nil
}
