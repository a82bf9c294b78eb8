package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/profile"

	"nnviz/internal/checkpoint"
	"nnviz/internal/config"
	"nnviz/internal/dataset"
	"nnviz/internal/network"
	"nnviz/internal/observe"
	"nnviz/internal/render"
	"nnviz/internal/trainer"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	layers := flag.String("layers", "", "Comma-separated layer sizes, e.g. 2,2,1")
	eps := flag.Float64("eps", 0, "Gradient-probe step size")
	rate := flag.Float64("rate", 0, "Learning rate")
	epochs := flag.Int("epochs", 0, "Number of epochs (0 = run until interrupted)")
	snapshotEvery := flag.Int("snapshot-every", 0, "Publish a snapshot every N epochs")
	logEvery := flag.Int("log-every", 0, "Log every N epochs")
	seed := flag.Int64("seed", 0, "PRNG seed")
	renderMS := flag.Int("render-ms", 0, "Renderer frame interval in milliseconds")
	listen := flag.String("listen", "", "Serve /snapshot JSON on this address")
	loadPath := flag.String("load", "", "Load network from checkpoint instead of random init")
	savePath := flag.String("save", "", "Save network to checkpoint on exit")
	quiet := flag.Bool("quiet", false, "Disable the terminal renderer")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile")

	flag.Parse()

	switch *profileMode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	case "":
	default:
		log.Fatalf("unknown profile mode %q", *profileMode)
	}

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	if err := cfg.ApplyOverrides(config.Overrides{
		LayerSizes:    *layers,
		Eps:           *eps,
		LearningRate:  *rate,
		Epochs:        *epochs,
		SnapshotEvery: *snapshotEvery,
		LogEvery:      *logEvery,
		Seed:          *seed,
		RenderMS:      *renderMS,
		Listen:        *listen,
	}); err != nil {
		log.Fatalf("invalid flag: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	var net *network.Network
	var err error
	if *loadPath != "" {
		net, err = checkpoint.Load(*loadPath)
		if err != nil {
			log.Fatalf("failed to load checkpoint: %v", err)
		}
		log.Printf("loaded checkpoint %s sizes=%v", *loadPath, net.Sizes())
	} else {
		rng := rand.New(rand.NewSource(cfg.Seed))
		net, err = network.New(cfg.LayerSizes, rng)
		if err != nil {
			log.Fatalf("failed to build network: %v", err)
		}
	}

	ds := dataset.XOR()
	sizes := net.Sizes()
	if err := dataset.Validate(ds, sizes[0], sizes[len(sizes)-1]); err != nil {
		log.Fatalf("dataset does not fit network: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := &trainer.Publisher{}

	if cfg.Listen != "" {
		srv := &http.Server{Addr: cfg.Listen, Handler: observe.New(pub).Handler()}
		go func() {
			log.Printf("snapshot endpoint on http://%s/snapshot", cfg.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("snapshot endpoint: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	var wg sync.WaitGroup
	if !*quiet {
		wg.Add(1)
		go func() {
			defer wg.Done()
			render.New(pub, os.Stdout, ds).Run(ctx, time.Duration(cfg.RenderMS)*time.Millisecond)
		}()
	}

	runCfg := trainer.RunConfig{
		Eps:           cfg.Eps,
		LearningRate:  cfg.LearningRate,
		MaxEpochs:     cfg.Epochs,
		SnapshotEvery: cfg.SnapshotEvery,
		LogEvery:      cfg.LogEvery,
		Publisher:     pub,
	}

	err = trainer.Run(ctx, net, ds, runCfg)
	stop()
	wg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("training failed: %v", err)
	}

	if cost, cerr := net.Cost(ds); cerr == nil {
		log.Printf("final cost=%.6f", cost)
	}

	if *savePath != "" {
		if err := checkpoint.Save(*savePath, net); err != nil {
			log.Fatalf("failed to save checkpoint: %v", err)
		}
		log.Printf("saved checkpoint %s", *savePath)
	}
}
