package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/ssoflow/sso-server/auth"
	"github.com/ssoflow/sso-server/auth/sessions"
	"github.com/ssoflow/sso-server/authcode"
	"github.com/ssoflow/sso-server/internal/config"
	"github.com/ssoflow/sso-server/server"
	"github.com/ssoflow/sso-server/token"
	"github.com/ssoflow/sso-server/token/keys"
	"github.com/ssoflow/sso-server/users"
	"github.com/ssoflow/sso-server/users/repoinmemory"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("error running server")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildServer wires the credential store, code issuer, token signer,
// verifier and flow orchestrator together. Signing key generation is
// the one fatal condition: it happens here, before any request is
// accepted.
func buildServer(c config.Config) (*server.Server, error) {
	keyPair, err := signingKeyPair(c)
	if err != nil {
		return nil, fmt.Errorf("signing key unavailable: %w", err)
	}
	signer := token.NewKeyPairSigner(keyPair)

	issuer := c.GetBaseURL()
	tokenIssuer, err := token.NewIssuer(signer, issuer, c.GetAudience(),
		token.WithTokenExpiry(c.GetTokenExpiry()),
		token.WithScope(c.GetScope()),
	)
	if err != nil {
		return nil, err
	}

	verifier := token.NewVerifier(signer.GetSigningMethod(), signer.PublicKey(), issuer, c.GetAudience())

	store := users.NewStore(repoinmemory.NewInMemoryUserRepo())
	codes := authcode.NewIssuer(authcode.WithTTL(c.GetAuthCodeTimeout()))

	flow, err := auth.NewFlowService(store, codes, tokenIssuer, verifier, auth.Repos{
		Sessions: sessions.NewInMemoryRepo(),
	})
	if err != nil {
		return nil, err
	}

	return server.New(c, flow, store, signer)
}

// signingKeyPair loads the configured PEM signing key, or generates an
// ephemeral one when no key is configured.
func signingKeyPair(c config.Config) (*keys.KeyPair, error) {
	if pemKey := c.GetSigningKeyPEM(); pemKey != "" {
		return keys.LoadKeyPairFromPEM(c.GetKeyID(), pemKey)
	}
	return keys.GenerateRSAKeyPair(c.GetKeyID(), 2048)
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
