package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
	"github.com/tphakala/go-gammatone"
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file         *os.File
	decoder      *wav.Decoder
	rate         int
	channels     int
	bitDepth     int
	totalSamples int64
	format       *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	bitDepth := int(decoder.BitDepth)

	logrus.WithFields(logrus.Fields{
		"rate":      format.SampleRate,
		"channels":  format.NumChannels,
		"bit_depth": bitDepth,
	}).Debug("Input format")

	// Total duration is only used for progress reporting.
	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}
	totalSamples := int64(duration.Seconds() * float64(format.SampleRate))

	return &wavInputInfo{
		file:         inputFile,
		decoder:      decoder,
		rate:         format.SampleRate,
		channels:     format.NumChannels,
		bitDepth:     bitDepth,
		totalSamples: totalSamples,
		format:       format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// monoBuffers holds the preallocated decode buffer and the mono samples
// waiting to be filtered.
type monoBuffers struct {
	intBuffer *audio.IntBuffer
	pending   []float64
	invMaxVal float64
}

// newMonoBuffers sizes the decode buffer for chunk frames of input.
func newMonoBuffers(input *wavInputInfo, chunk int) *monoBuffers {
	return &monoBuffers{
		intBuffer: &audio.IntBuffer{
			Data:   make([]int, chunk*input.channels),
			Format: input.format,
		},
		pending:   make([]float64, 0, 2*chunk),
		invMaxVal: 1 / getMaxValue(input.bitDepth),
	}
}

// appendMono converts interleaved integer samples to [-1, 1] floats, mixes
// them to mono and appends the result to pending.
func (b *monoBuffers) appendMono(data []int, channels int) {
	if channels == 1 {
		for _, v := range data {
			b.pending = append(b.pending, float64(v)*b.invMaxVal)
		}
		return
	}

	scaled := make([]float64, len(data))
	for i, v := range data {
		scaled[i] = float64(v) * b.invMaxVal
	}
	b.pending = append(b.pending, gammatone.MixToMono(scaled, channels)...)
}

// getMaxValue returns the full-scale integer value for a bit depth.
func getMaxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16:
		return maxInt16
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// frameSamples converts a frame duration to a sample count, at least 1.
func frameSamples(frame time.Duration, rate int) int {
	return max(int(math.Round(frame.Seconds()*float64(rate))), 1)
}

// clampHigh keeps the highest center frequency below Nyquist.
func clampHigh(high, rate float64) float64 {
	const nyquistMargin = 0.95
	return min(high, rate/2*nyquistMargin)
}

// csvOutput writes cochleogram frames as CSV.
type csvOutput struct {
	file   *os.File
	writer *csv.Writer
	record []string
}

// createCSVOutput creates the output file and writes the header row of
// center frequencies.
func createCSVOutput(path string, centerFrequencies []float64) (*csvOutput, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	out := &csvOutput{
		file:   f,
		writer: csv.NewWriter(f),
		record: make([]string, len(centerFrequencies)),
	}

	for i, cf := range centerFrequencies {
		out.record[i] = strconv.FormatFloat(cf, 'f', 2, 64)
	}
	if err := out.writer.Write(out.record); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	return out, nil
}

// WriteFrames writes one CSV row per frame.
func (o *csvOutput) WriteFrames(frames [][]float64) error {
	for _, frame := range frames {
		for i, v := range frame {
			o.record[i] = strconv.FormatFloat(v, 'g', 6, 64)
		}
		if err := o.writer.Write(o.record); err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (o *csvOutput) Close() error {
	o.writer.Flush()
	if err := o.writer.Error(); err != nil {
		_ = o.file.Close()
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return o.file.Close()
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalSamples int64
	lastProgress int
}

// newProgressTracker creates a new progress tracker.
func newProgressTracker(totalSamples int64) *progressTracker {
	return &progressTracker{totalSamples: totalSamples}
}

// reportIfNeeded logs progress when a threshold is crossed.
func (p *progressTracker) reportIfNeeded(currentSamples int64) {
	if p.totalSamples == 0 {
		return
	}

	progress := int(float64(currentSamples) / float64(p.totalSamples) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		logrus.WithField("percent", progress).Debug("Progress")
		p.lastProgress = progress
	}
}
