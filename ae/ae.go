// Package ae is the top-level Application Entity: a long-lived server
// that accepts inbound associations and a convenience wrapper for
// making outbound ones, both configured from one set of handlers and
// presentation contexts. P3.8 "DICOM Application Entity".
package ae

import (
	"context"
	"fmt"
	"net"

	"github.com/dcmnet/ul/association"
	"github.com/dcmnet/ul/dulsm"
	"github.com/dcmnet/ul/metrics"
	"github.com/dcmnet/ul/presentation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config configures an AE's identity, negotiation behavior, and
// service handlers. The same Config is used whether the AE accepts
// connections, initiates them, or both.
type Config struct {
	AETitle           string
	SupportedContexts []presentation.Proposal
	Options           dulsm.Options
	Handlers          association.Handlers
	Logger            *zerolog.Logger
	Metrics           *metrics.Metrics
}

// AE accepts inbound associations on a listener and can initiate
// outbound ones, using one shared Config.
type AE struct {
	cfg    Config
	logger zerolog.Logger
}

// New builds an AE from cfg. It does not start listening.
func New(cfg Config) *AE {
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &AE{cfg: cfg, logger: logger.With().Str("ae_title", cfg.AETitle).Logger()}
}

// ListenAndServe binds addr and calls Serve on it until ctx is
// cancelled.
func (ae *AE) ListenAndServe(ctx context.Context, network, addr string) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, network, addr)
	if err != nil {
		return fmt.Errorf("ae: listen %s: %w", addr, err)
	}
	return ae.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, running one
// Association per connection. It waits for every in-flight association
// to reach a terminal state before returning, so a cancelled ctx
// drains gracefully rather than severing live transfers.
func (ae *AE) Serve(ctx context.Context, ln net.Listener) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	ae.logger.Info().Str("addr", ln.Addr().String()).Msg("ae: listening")
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return group.Wait()
			default:
				return fmt.Errorf("ae: accept: %w", err)
			}
		}
		group.Go(func() error {
			a := association.Accept(conn, association.Config{
				LocalAETitle:      ae.cfg.AETitle,
				SupportedContexts: ae.cfg.SupportedContexts,
				Options:           ae.cfg.Options,
				Handlers:          ae.cfg.Handlers,
				Logger:            &ae.logger,
				Metrics:           ae.cfg.Metrics,
			})
			a.Wait()
			return nil
		})
	}
}

// Associate opens an outbound association to calledAETitle at addr.
func (ae *AE) Associate(ctx context.Context, network, addr, calledAETitle string) (*association.Association, error) {
	return association.Associate(ctx, network, addr, calledAETitle, association.Config{
		LocalAETitle:      ae.cfg.AETitle,
		SupportedContexts: ae.cfg.SupportedContexts,
		Options:           ae.cfg.Options,
		Handlers:          ae.cfg.Handlers,
		Logger:            &ae.logger,
		Metrics:           ae.cfg.Metrics,
	})
}
