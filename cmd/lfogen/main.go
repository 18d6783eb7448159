package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/golang/glog"
	"golang.org/x/term"

	"github.com/cbegin/lfogen"
	"github.com/cbegin/lfogen/internal/audio"
	"github.com/cbegin/lfogen/internal/config"
	"github.com/cbegin/lfogen/internal/sink"
)

// paramFlags are copied into the config only when given on the command line.
var paramFlags = map[string]*string{
	"name":      flag.String("name", "", "generator name, shown in logs"),
	"waveform":  flag.String("waveform", "", "sine|saw|saw_i|triangle|square|sig (default sine)"),
	"frequency": flag.String("frequency", "", "waveform frequency (default 1)"),
	"interval":  flag.String("interval", "", "milliseconds between samples (default 20)"),
	"range":     flag.String("range", "", "offsetamplitude|minmax (default offsetamplitude)"),
	"offset":    flag.String("offset", "", "output offset (default 0)"),
	"amplitude": flag.String("amplitude", "", "output amplitude (default 1)"),
	"min":       flag.String("min", "", "output minimum in minmax range (default -1)"),
	"max":       flag.String("max", "", "output maximum in minmax range (default 1)"),
}

var (
	configPath  = flag.String("config", "", "path to a TOML config file")
	autostart   = flag.Bool("autostart", false, "start sampling without waiting for a start message")
	format      = flag.String("format", "auto", "output format: auto|json|text")
	wavPath     = flag.String("wav", "", "also record samples to this WAV file")
	render      = flag.Int("render", 0, "render N samples offline to -wav or stdout and exit")
	monitor     = flag.Bool("monitor", false, "play a tone whose pitch follows the LFO")
	monitorBase = flag.Float64("monitor-base", 440, "monitor tone frequency in Hz at LFO output 0")
	monitorRate = flag.Int("monitor-rate", 48000, "monitor output sample rate")
)

func main() {
	flag.Parse()
	defer log.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	if err := doMain(ctx, os.Stdin, os.Stdout, isTTY); err != nil {
		log.Exitf("lfogen: %v", err)
	}
}

func doMain(ctx context.Context, in io.Reader, out io.Writer, isTTY bool) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	outFormat, err := parseFormat(*format, isTTY)
	if err != nil {
		return err
	}
	if *render > 0 {
		return renderOffline(cfg, *render, out, outFormat)
	}

	writer := sink.NewWriter(out, outFormat)
	sinks := sink.Tee{writer}

	var rec *sink.WAV
	if *wavPath != "" {
		rate, err := lfogen.TickRate(cfg)
		if err != nil {
			return err
		}
		rec = sink.NewWAV(rate)
		sinks = append(sinks, rec)
	}

	if *monitor {
		mon := audio.NewMonitor(*monitorRate, *monitorBase, 1)
		player, err := audio.NewPlayer(*monitorRate, mon)
		if err != nil {
			return fmt.Errorf("monitor: %w", err)
		}
		defer func() {
			if err := player.Stop(); err != nil {
				log.Warningf("monitor: closing player: %v", err)
			}
		}()
		player.Play()
		sinks = append(sinks, mon)
	}

	g, err := lfogen.NewGenerator(cfg, sinks)
	if err != nil {
		return err
	}
	defer g.Close()

	if snap, err := g.Snapshot(ctx); err == nil {
		log.Infof("lfo %q: %s at %g, every %v, %v range %+v -> (%g, %g); declared %v, derived %v",
			snap.Name, snap.Waveform, snap.Frequency, snap.Interval, snap.Range, snap.Scale,
			snap.CanonicalOffset, snap.CanonicalAmplitude, snap.Declared, derivedKeys(cfg))
	}
	if *autostart {
		if err := g.Start(); err != nil {
			return err
		}
	}

	if err := readControl(ctx, in, g); err != nil {
		return err
	}
	if err := g.Close(); err != nil {
		return err
	}
	if err := writer.Err(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if rec != nil {
		return saveWAV(*wavPath, rec)
	}
	return nil
}

func buildConfig() (lfogen.Config, error) {
	cfg := lfogen.DefaultConfig()
	if strings.TrimSpace(*configPath) != "" {
		var err error
		if cfg, err = lfogen.LoadConfig(*configPath); err != nil {
			return cfg, err
		}
	}
	var err error
	flag.Visit(func(f *flag.Flag) {
		if _, ok := paramFlags[f.Name]; ok && err == nil {
			err = cfg.Set(f.Name, f.Value.String())
		}
	})
	return cfg, err
}

// derivedKeys lists the parameters left to built-in defaults.
func derivedKeys(cfg lfogen.Config) []string {
	var keys []string
	for _, k := range config.Keys {
		if !cfg.Declared(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

func parseFormat(name string, isTTY bool) (sink.Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "auto":
		if isTTY {
			return sink.FormatText, nil
		}
		return sink.FormatJSON, nil
	case "json":
		return sink.FormatJSON, nil
	case "text":
		return sink.FormatText, nil
	default:
		return 0, fmt.Errorf("invalid -format %q (expected auto|json|text)", name)
	}
}

// readControl feeds stdin to the generator until ctx is done. Each line is a
// JSON object such as {"topic":"frequency","payload":2}, or a bare payload
// such as start, stop or 0.5. The generator keeps running after stdin ends.
func readControl(ctx context.Context, in io.Reader, g *lfogen.Generator) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			log.Warningf("reading control input: %v", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			msg, err := parseControl(line)
			if err != nil {
				log.Warningf("ignoring control line %q: %v", line, err)
				continue
			}
			if msg == nil {
				continue
			}
			if err := g.Send(msg); err != nil {
				return err
			}
		}
	}
}

func parseControl(line string) (lfogen.Message, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	if !strings.HasPrefix(line, "{") {
		return lfogen.Message{lfogen.PayloadKey: line}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(line)))
	dec.UseNumber()
	var msg lfogen.Message
	if err := dec.Decode(&msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func renderOffline(cfg lfogen.Config, n int, out io.Writer, outFormat sink.Format) error {
	samples, err := lfogen.RenderSamples(cfg, n)
	if err != nil {
		return err
	}
	if *wavPath != "" {
		rate, err := lfogen.TickRate(cfg)
		if err != nil {
			return err
		}
		rec := sink.NewWAV(rate)
		for _, v := range samples {
			rec.Emit(lfogen.Message{lfogen.PayloadKey: v})
		}
		return saveWAV(*wavPath, rec)
	}
	w := sink.NewWriter(out, outFormat)
	for _, v := range samples {
		w.Emit(lfogen.Message{lfogen.PayloadKey: v})
	}
	return w.Err()
}

func saveWAV(path string, rec *sink.WAV) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}
	if err := rec.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Infof("wrote %d samples to %s", rec.Len(), path)
	return nil
}
