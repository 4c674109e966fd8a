// Command gcsim is a small demonstration driver for the gamecalls scoring
// core: it synthesizes a reference call and a live attempt, wires an
// in-memory reference provider, runs both through an Engine, and prints
// the resulting score and coaching feedback. It exists to exercise the
// session API end to end; it is not the product's transport layer (spec
// §1 explicit non-goals).
package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/alecthomas/kong"
	charmlog "github.com/charmbracelet/log"

	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/config"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/diag"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/level"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/refstore"
	"github.com/Hunt-Master-Academy/hma-gamecalls-engine-sub012/session"
)

// CLI defines gcsim's command-line interface.
type CLI struct {
	SampleRate   int     `help:"Sample rate in Hz." default:"44100"`
	DurationSec  float64 `help:"Length of the synthesized reference and attempt, in seconds." default:"1.0"`
	FreqHz       float64 `help:"Reference call's tone frequency in Hz." default:"440"`
	DetuneCents  float64 `help:"Pitch detuning applied to the live attempt, in cents." default:"0"`
	ChunkSize    int     `help:"Samples per simulated audio chunk." default:"4096"`
	TunablesYAML string  `help:"Optional path to a YAML document overriding the default tunables." default:""`
	Verbose      bool    `short:"v" help:"Enable debug logging."`
}

type memoryProvider struct {
	audio map[refstore.ID][]float64
}

func (p *memoryProvider) Fetch(_ context.Context, id refstore.ID) (refstore.FetchResult, error) {
	a, ok := p.audio[id]
	if !ok {
		return refstore.FetchResult{}, fmt.Errorf("no such reference: %s", id)
	}
	return refstore.FetchResult{RawAudio: a}, nil
}

func tone(n int, amplitude, freqHz, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freqHz*float64(i)/sampleRate)
	}
	return out
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("gcsim"),
		kong.Description("Drives the gamecalls scoring core against a synthesized call."),
		kong.UsageOnError(),
	)

	logLevel := charmlog.InfoLevel
	if cli.Verbose {
		logLevel = charmlog.DebugLevel
	}
	sink := diag.NewLogSink(os.Stderr, logLevel)

	tunables := config.Defaults()
	if cli.TunablesYAML != "" {
		f, err := os.Open(cli.TunablesYAML)
		if err != nil {
			sink.Errorf("opening tunables YAML: %v", err)
			os.Exit(1)
		}
		tunables, err = config.LoadYAML(f)
		f.Close()
		if err != nil {
			sink.Errorf("loading tunables YAML: %v", err)
			os.Exit(1)
		}
	}

	sampleRate := float64(cli.SampleRate)
	n := int(cli.DurationSec * sampleRate)
	refAudio := tone(n, 0.8, cli.FreqHz, sampleRate)

	detuneRatio := math.Pow(2, cli.DetuneCents/1200)
	attemptAudio := tone(n, 0.8, cli.FreqHz*detuneRatio, sampleRate)

	provider := &memoryProvider{audio: map[refstore.ID][]float64{"practice-call": refAudio}}
	store := refstore.New(provider, level.DefaultConfig())
	engine := session.New(store, session.WithSink(sink), session.WithTunables(tunables))

	id, err := engine.CreateSession(cli.SampleRate)
	if err != nil {
		sink.Errorf("create_session failed: %v", err)
		os.Exit(1)
	}
	if err := engine.LoadMasterCall(context.Background(), id, "practice-call"); err != nil {
		sink.Errorf("load_master_call failed: %v", err)
		os.Exit(1)
	}
	sink.Infof("loaded reference %q (%d samples)", "practice-call", len(refAudio))

	for i := 0; i+cli.ChunkSize <= len(attemptAudio); i += cli.ChunkSize {
		chunk := attemptAudio[i : i+cli.ChunkSize]
		if err := engine.ProcessAudioChunk(id, chunk); err != nil {
			sink.Errorf("process_audio_chunk failed: %v", err)
			os.Exit(1)
		}
	}

	score, err := engine.GetDetailedScore(id)
	if err != nil {
		sink.Errorf("get_detailed_score failed: %v", err)
		os.Exit(1)
	}
	feedback, err := engine.GetRealtimeFeedback(id)
	if err != nil {
		sink.Errorf("get_realtime_feedback failed: %v", err)
		os.Exit(1)
	}

	fmt.Printf("overall=%.4f mfcc=%.4f volume=%.4f timing=%.4f confidence=%.4f is_match=%v is_reliable=%v\n",
		score.Overall, score.MFCC, score.Volume, score.Timing, score.Confidence, score.IsMatch, score.IsReliable)
	fmt.Printf("quality=%q recommendation=%q is_improving=%v progress_ratio=%.2f\n",
		feedback.QualityAssessment, feedback.Recommendation, feedback.IsImproving, feedback.ProgressRatio)
}
