// Command paulstretch is a CLI and optional demo server around the stretch
// core: it reads a WAV (or, with the opus build tag, an Opus) clip, runs the
// PaulStretch pipeline, and writes a WAV of the result, following the
// flag-parsing-over-YAML-config shape of ka9q_ubersdr's main.go.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/paulstretch/internal/config"
	"github.com/cwsl/paulstretch/internal/mcptool"
	"github.com/cwsl/paulstretch/internal/metrics"
	"github.com/cwsl/paulstretch/internal/mqttsink"
	"github.com/cwsl/paulstretch/internal/rtpout"
	"github.com/cwsl/paulstretch/internal/wsserver"
	"github.com/cwsl/paulstretch/stretch"
	"github.com/cwsl/paulstretch/wavio"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file (optional, defaults built in)")
	inputPath := flag.String("in", "", "Input WAV file (required)")
	outputPath := flag.String("out", "", "Output WAV file (required)")
	factor := flag.Float64("factor", 0, "Stretch factor override, e.g. 8")
	windowSeconds := flag.Float64("window", 0, "Analysis window length in seconds override, e.g. 0.25")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		log.Println("Debug mode enabled")
	}

	cfg := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}
	if *factor != 0 {
		cfg.Stretch.StretchFactor = *factor
	}
	if *windowSeconds != 0 {
		cfg.Stretch.WindowSizeSeconds = *windowSeconds
	}

	if *inputPath == "" || *outputPath == "" {
		log.Fatalf("Usage: paulstretch -in input.wav -out output.wav [-factor 8] [-window 0.25]")
	}

	shape, err := lookupShape(cfg.Stretch.WindowShape)
	if err != nil {
		log.Fatalf("Invalid window_shape in config: %v", err)
	}

	stretchCfg := stretch.Config{
		StretchFactor:     cfg.Stretch.StretchFactor,
		WindowSizeSeconds: cfg.Stretch.WindowSizeSeconds,
		WorkerCount:       cfg.Stretch.WorkerCount,
		WindowShape:       shape,
		Seed:              cfg.Stretch.Seed,
	}

	core, err := stretch.New(stretchCfg)
	if err != nil {
		log.Fatalf("Failed to construct PaulStretch core: %v", err)
	}
	defer core.Close()

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewRecorder()
		core.SetMetrics(recorder)
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("Prometheus metrics enabled at %s/metrics", cfg.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil {
				log.Printf("metrics server stopped: %v", err)
			}
		}()
	}

	var sink *mqttsink.Sink
	if cfg.MQTT.Enabled {
		sink, err = mqttsink.New(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
		if err != nil {
			log.Printf("Warning: MQTT sink unavailable: %v", err)
			sink = nil
		} else {
			defer sink.Close()
		}
	}

	var ws *wsserver.Server
	if cfg.Server.Enabled {
		ws = wsserver.New()
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", ws.HandleWS)
		go func() {
			log.Printf("Progress websocket demo server listening on %s/ws", cfg.Server.Addr)
			if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
				log.Printf("progress server stopped: %v", err)
			}
		}()
	}

	if cfg.MCP.Enabled {
		mcpServer := mcptool.New(core)
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcpServer)
		go func() {
			log.Printf("MCP tool server listening on %s/mcp", cfg.MCP.Addr)
			if err := http.ListenAndServe(cfg.MCP.Addr, mux); err != nil {
				log.Printf("mcp server stopped: %v", err)
			}
		}()
	}

	log.Printf("Loading %s", *inputPath)
	in, err := loadInput(*inputPath)
	if err != nil {
		log.Fatalf("Failed to load input: %v", err)
	}
	log.Printf("Input: %d channel(s), %d Hz, %d frames, peak %.1f dBFS",
		in.ChannelCount(), in.SampleRate, in.FrameCount(), wavio.PeakDBFS(in.PeakAbs()))

	jobID := fmt.Sprintf("cli-%d", time.Now().Unix())
	var progressFns []func(float64)
	if sink != nil {
		progressFns = append(progressFns, sink.ProgressFunc(jobID))
	}
	if ws != nil {
		_, fn := ws.ProgressFunc()
		progressFns = append(progressFns, fn)
	}

	start := time.Now()
	out, err := core.Stretch(in, fanoutProgress(progressFns))
	if err != nil {
		if sink != nil {
			sink.PublishJobComplete(jobID, 0, err)
		}
		log.Fatalf("Stretch failed: %v", err)
	}
	log.Printf("Stretched %d -> %d frames in %v", in.FrameCount(), out.FrameCount(), time.Since(start))

	if sink != nil {
		sink.PublishJobComplete(jobID, out.FrameCount(), nil)
	}

	if cfg.RTP.Enabled {
		streamer, err := rtpout.New(cfg.RTP.DestAddr, cfg.RTP.PayloadPT)
		if err != nil {
			log.Printf("Warning: RTP streaming unavailable: %v", err)
		} else {
			defer streamer.Close()
			if err := streamer.Send(out, 0); err != nil {
				log.Printf("Warning: RTP streaming failed: %v", err)
			}
		}
	}

	outFile, err := os.Create(*outputPath)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *outputPath, err)
	}
	defer outFile.Close()

	if err := wavio.Encode(outFile, out); err != nil {
		log.Fatalf("Failed to write %s: %v", *outputPath, err)
	}
	log.Printf("Wrote %s", *outputPath)
}

func lookupShape(name string) (stretch.Shape, error) {
	switch strings.ToLower(name) {
	case "", "hann":
		return stretch.ShapeHann, nil
	case "legacy":
		return stretch.ShapeLegacy, nil
	default:
		return stretch.Shape(0), fmt.Errorf("unknown window shape %q", name)
	}
}

func fanoutProgress(fns []func(float64)) func(float64) {
	if len(fns) == 0 {
		return nil
	}
	return func(frac float64) {
		for _, fn := range fns {
			fn(frac)
		}
	}
}
