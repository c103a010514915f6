// Copyright the ajax-relay-gateway authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	log "go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/skyggedans/ajax-relay-gateway/pkg/httpapi"
	"github.com/skyggedans/ajax-relay-gateway/pkg/metrics"
	"github.com/skyggedans/ajax-relay-gateway/pkg/registry"
	"github.com/skyggedans/ajax-relay-gateway/pkg/relay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay session supervisor and HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		if err := runServe(); err != nil {
			logger.Error("serve exited", log.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := relay.NewGateway(relay.Config{
		RelayHost:     cfg.RelayHost,
		RelayPort:     cfg.RelayPort,
		InputsNumber:  cfg.InputsNumber,
		OutputsNumber: cfg.OutputsNumber,
	}, logger)
	registry.Set(gw)

	if cfg.EnableGPIO {
		if err := startGPIO(gw, cfg, logger); err != nil {
			logger.Warn("gpio adapter disabled", log.Error(err))
		}
	}
	if cfg.EnableDisplay {
		if err := startDisplay(gw, cfg, logger); err != nil {
			logger.Warn("display adapter disabled", log.Error(err))
		}
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpapi.New(gw, logger, cfg.StaticDir),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gw.Run(gctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				status := gw.Status()
				metrics.Poll(status.Connected, gw.SubscriberCount(), gw.RestartCount())
			}
		}
	})

	g.Go(func() error {
		logger.Info("http api listening", log.String("addr", cfg.HTTPAddr))
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
