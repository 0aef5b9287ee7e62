// Command plateverb renders a WAV file through the plate reverb.
//
// The input is mixed to mono, processed block by block through the plugin
// port interface, and written as a 24-bit stereo WAV. Optional flags print
// decay metrics of the rendered tail or play the result.
//
// Examples:
//
//	plateverb input.wav -o wet.wav
//	plateverb input.wav --rt60 4.5 --damping 0.7 --mix 0.4
//	plateverb input.wav --analyze
//	plateverb input.wav --play
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ebitengine/oto/v3"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-plateverb/measure/decay"
	"github.com/cwbudde/algo-plateverb/plug"
)

type cli struct {
	Input  string `arg:"" type:"existingfile" help:"Input WAV file."`
	Output string `short:"o" default:"out.wav" help:"Output WAV file (24-bit stereo)."`

	Mix       float32 `default:"0.25" help:"Dry/wet mix, 0 to 1."`
	Predelay  float32 `default:"20" help:"Predelay in milliseconds, 0 to 200."`
	RT60      float32 `name:"rt60" default:"2.5" help:"Decay time in seconds, 0.1 to 20."`
	Damping   float32 `default:"0.5" help:"High-frequency damping, 0 to 1."`
	Diffusion float32 `default:"0.7" help:"Echo density, 0 to 1."`
	Size      float32 `default:"1.0" help:"Plate size scale, 0.5 to 1.5."`
	Gate      float32 `default:"0" help:"Tail gate amount, 0 disables."`
	ModDepth  float32 `name:"mod-depth" default:"1.0" help:"Diffuser modulation depth in milliseconds, 0 to 5."`
	ModRate   float32 `name:"mod-rate" default:"0.5" help:"Diffuser modulation rate in Hz, 0 to 5."`
	Locut     float32 `default:"10" help:"Wet-path high-pass cutoff in Hz, 10 to 1000."`
	Grit      float32 `default:"0" help:"Input saturation amount, 0 to 1."`

	Tail    float64 `default:"3" help:"Extra seconds rendered after the input ends."`
	Block   int     `default:"512" help:"Processing block size in frames."`
	Analyze bool    `help:"Print decay metrics of the rendered output."`
	Play    bool    `help:"Play the rendered output."`
}

func main() {
	args := &cli{}
	ctx := kong.Parse(args,
		kong.Name("plateverb"),
		kong.Description("Plate reverb renderer for WAV files"),
		kong.UsageOnError(),
	)

	ctx.FatalIfErrorf(run(args))
}

func run(args *cli) error {
	if args.Block < 1 {
		return fmt.Errorf("block size must be >= 1: %d", args.Block)
	}

	input, sampleRate, err := loadMono(args.Input)
	if err != nil {
		return err
	}

	left, right, err := render(args, input, sampleRate)
	if err != nil {
		return err
	}

	if err := writeStereo(args.Output, left, right, sampleRate); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d frames at %d Hz\n", args.Output, len(left), sampleRate)

	if args.Analyze {
		if err := printMetrics(left, right, sampleRate); err != nil {
			return err
		}
	}

	if args.Play {
		return play(left, right, sampleRate)
	}

	return nil
}

// loadMono decodes a WAV file and mixes all channels down to mono in
// [-1, 1].
func loadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("decode %s: missing format", path)
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels

	if frames == 0 {
		return nil, 0, fmt.Errorf("decode %s: no samples", path)
	}

	bits := buf.SourceBitDepth
	if bits <= 0 {
		bits = int(dec.BitDepth)
	}

	if bits <= 0 {
		bits = 16
	}

	scale := 1.0 / float64(int64(1)<<(bits-1))
	norm := scale / float64(channels)

	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}

		mono[i] = sum * norm
	}

	return mono, buf.Format.SampleRate, nil
}

// render streams the mono input plus a silent tail through the plugin
// interface and collects the stereo result as float64.
func render(args *cli, input []float64, sampleRate int) (left, right []float64, err error) {
	instance, err := plug.Instantiate(float64(sampleRate))
	if err != nil {
		return nil, nil, err
	}

	blockIn := make([]float32, args.Block)
	blockLeft := make([]float32, args.Block)
	blockRight := make([]float32, args.Block)

	ports := map[int]any{
		plug.PortAudioIn:       blockIn,
		plug.PortAudioOutLeft:  blockLeft,
		plug.PortAudioOutRight: blockRight,
		plug.PortMix:           &args.Mix,
		plug.PortPreDelay:      &args.Predelay,
		plug.PortRT60:          &args.RT60,
		plug.PortDamping:       &args.Damping,
		plug.PortDiffusion:     &args.Diffusion,
		plug.PortSize:          &args.Size,
		plug.PortGate:          &args.Gate,
		plug.PortModDepth:      &args.ModDepth,
		plug.PortModRate:       &args.ModRate,
		plug.PortLowCut:        &args.Locut,
		plug.PortGrit:          &args.Grit,
	}

	for port, data := range ports {
		if err := instance.ConnectPort(port, data); err != nil {
			return nil, nil, err
		}
	}

	instance.Activate()
	defer instance.Cleanup()

	total := len(input) + int(args.Tail*float64(sampleRate))
	left = make([]float64, 0, total)
	right = make([]float64, 0, total)

	for offset := 0; offset < total; offset += args.Block {
		frames := args.Block
		if total-offset < frames {
			frames = total - offset
		}

		for i := 0; i < frames; i++ {
			if offset+i < len(input) {
				blockIn[i] = float32(input[offset+i])
			} else {
				blockIn[i] = 0
			}
		}

		instance.Run(frames)

		for i := 0; i < frames; i++ {
			left = append(left, float64(blockLeft[i]))
			right = append(right, float64(blockRight[i]))
		}
	}

	return left, right, nil
}

// writeStereo writes a 24-bit stereo WAV file.
func writeStereo(path string, left, right []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	const (
		bitDepth = 24
		pcmScale = 1 << (bitDepth - 1)
	)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
		Data:           make([]int, 2*len(left)),
	}

	for i := range left {
		buf.Data[2*i] = clampPCM(left[i], pcmScale)
		buf.Data[2*i+1] = clampPCM(right[i], pcmScale)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 2, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	return enc.Close()
}

func clampPCM(v float64, scale int) int {
	s := int(math.Round(v * float64(scale)))
	if s > scale-1 {
		return scale - 1
	}

	if s < -scale {
		return -scale
	}

	return s
}

// printMetrics runs decay analysis on both channels and prints a table.
func printMetrics(left, right []float64, sampleRate int) error {
	analyzer, err := decay.NewAnalyzer(float64(sampleRate))
	if err != nil {
		return err
	}

	l, r, err := analyzer.AnalyzeStereo(left, right)
	if err != nil {
		return err
	}

	centroid := func(s []float64) float64 {
		mags, err := decay.MagnitudeSpectrum(s)
		if err != nil {
			return 0
		}

		return decay.SpectralCentroid(mags, float64(sampleRate))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "channel\tRT60\tEDT\tT20\tT30\tcentroid")
	fmt.Fprintf(w, "left\t%.2fs\t%.2fs\t%.2fs\t%.2fs\t%.0fHz\n",
		l.RT60, l.EDT, l.T20, l.T30, centroid(left))
	fmt.Fprintf(w, "right\t%.2fs\t%.2fs\t%.2fs\t%.2fs\t%.0fHz\n",
		r.RT60, r.EDT, r.T20, r.T30, centroid(right))

	return w.Flush()
}

// play streams the rendered audio to the default output device as
// interleaved float32.
func play(left, right []float64, sampleRate int) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return err
	}
	<-ready

	pcm := make([]byte, 0, 8*len(left))
	var sample [4]byte

	for i := range left {
		binary.LittleEndian.PutUint32(sample[:], math.Float32bits(float32(left[i])))
		pcm = append(pcm, sample[:]...)
		binary.LittleEndian.PutUint32(sample[:], math.Float32bits(float32(right[i])))
		pcm = append(pcm, sample[:]...)
	}

	player := ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	return player.Close()
}
