package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"itemgrid.ai/internal/gridcfg"
	persistlog "itemgrid.ai/internal/persistence/log"
	"itemgrid.ai/internal/protocol"
	"itemgrid.ai/internal/store"
	"itemgrid.ai/internal/transport/ws"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/grid.yaml", "grid config path")
		dataDir    = flag.String("data", "", "runtime data directory (overrides config)")
		noTlog     = flag.Bool("disable_transfer_log", false, "disable the compressed transfer event log")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[gridnoded] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := gridcfg.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	_ = os.MkdirAll(cfg.DataDir, 0o755)

	st, err := store.Open(filepath.Join(cfg.DataDir, "grid.db"))
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	for _, n := range cfg.Nodes {
		def := store.NodeDef{
			ID:      n.ID,
			Slots:   n.Slots,
			CanList: !n.NoList,
			CanPush: !n.NoPush,
			CanPull: !n.NoPull,
		}
		if err := st.EnsureNode(ctx, def); err != nil {
			logger.Fatalf("register node %s: %v", n.ID, err)
		}
	}
	if err := seedOnce(ctx, st, cfg); err != nil {
		logger.Fatalf("seed inventories: %v", err)
	}

	var tlog *persistlog.TransferLogger
	if !*noTlog {
		tlog = persistlog.NewTransferLogger(cfg.DataDir)
		defer tlog.Close()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", ws.NewServer(st, logger, tlog).Handler())

	srv := &http.Server{Addr: cfg.Listen, Handler: mux}
	go func() {
		logger.Printf("listening on %s (%d nodes)", cfg.Listen, len(cfg.Nodes))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	logger.Printf("bye")
}

// seedOnce pre-fills configured slots, skipping any slot that already holds
// items so restarts never duplicate inventory.
func seedOnce(ctx context.Context, st *store.Store, cfg gridcfg.Config) error {
	for _, s := range cfg.Seed {
		stacks, err := st.Stacks(ctx, s.Node)
		if err != nil {
			return err
		}
		taken := false
		for _, have := range stacks {
			if have.Slot == s.Slot {
				taken = true
				break
			}
		}
		if taken {
			continue
		}
		err = st.SetStack(ctx, s.Node, protocol.ItemStack{
			Slot:     s.Slot,
			Item:     s.Item,
			Count:    s.Count,
			MaxCount: s.MaxCount,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
