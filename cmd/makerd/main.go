package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/openswap-network/maker-daemon/internal/config"
	"github.com/openswap-network/maker-daemon/internal/core/application"
	"github.com/openswap-network/maker-daemon/internal/core/domain"
	"github.com/openswap-network/maker-daemon/internal/core/ports"
	"github.com/openswap-network/maker-daemon/internal/infrastructure/ethereum"
	"github.com/openswap-network/maker-daemon/internal/infrastructure/messaging"
	"github.com/openswap-network/maker-daemon/internal/interfaces/web"
	"github.com/openswap-network/maker-daemon/pkg/stats"
)

// noopDecrypter rejects armored params when no PGP key is configured, which
// makes the trade service drop them.
type noopDecrypter struct{}

func (noopDecrypter) Decrypt(string) ([]byte, error) {
	return nil, errors.New("no pgp key configured")
}

func main() {
	// A local .env is a convenience for development, not a requirement.
	_ = godotenv.Load()

	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	tokens, err := config.GetTokens()
	if err != nil {
		log.WithError(err).Fatal("invalid token configuration")
	}
	markets, err := config.GetMarkets()
	if err != nil {
		log.WithError(err).Fatal("invalid market configuration")
	}
	if len(markets) == 0 {
		log.Fatal("no markets configured")
	}
	registry := domain.NewTokenRegistry(tokens)

	ethClient, err := ethereum.NewClient(ethereum.ClientOpts{
		RPCURL:        config.GetString(config.EthRPCURLKey),
		PrivateKeyHex: config.GetString(config.PrivateKeyKey),
		ChainID:       int64(config.GetInt(config.ChainIDKey)),
		SwapContract:  config.GetString(config.SwapContractKey),
		WethContract:  config.GetString(config.WethContractKey),
		GasLimit:      uint64(config.GetInt(config.GasLimitKey)),
	})
	if err != nil {
		log.WithError(err).Fatal("failed to set up ethereum client")
	}

	signer := ethereum.NewOrderSigner(
		ethClient.PrivateKey(), config.GetString(config.SwapContractKey),
	)
	log.WithField("address", signer.Address()).Info("maker wallet loaded")

	var decrypter ports.Decrypter = noopDecrypter{}
	if armoredKey := config.GetString(config.PGPKeyKey); armoredKey != "" {
		pgp, err := messaging.NewPGPDecrypter(
			armoredKey, config.GetString(config.PGPPassphraseKey),
		)
		if err != nil {
			log.WithError(err).Fatal("failed to load pgp key")
		}
		decrypter = pgp
	}

	router := messaging.NewRouter(
		config.GetString(config.RelayURLKey), signer.Address(),
		ethClient.SignMessage,
	)
	indexer := messaging.NewIndexerClient(
		router, config.GetString(config.IndexerAddressKey),
	)

	version := domain.SwapVersion(config.GetInt(config.SwapVersionKey))
	erc20Kind := config.GetString(config.ERC20KindKey)
	assembler := domain.NewAssembler(
		time.Duration(config.GetInt(config.TradeWindowKey))*time.Second,
		erc20Kind, nil,
	)
	pricing := application.NewPricingService(
		registry,
		application.NewFixedPriceStrategy(
			decimal.NewFromFloat(config.GetFloat(config.PriceKey)),
		),
	)
	trade := application.NewTradeService(
		signer, decrypter, router, ethClient, pricing, assembler, erc20Kind,
	)
	intents := application.NewIntentService(indexer, registry, markets, version)
	approvals := application.NewApprovalService(
		ethClient, ethClient, signer.Address(), nil,
	)

	for _, method := range trade.Methods() {
		router.Handle(method, trade.HandleRPC)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	// Approvals come first: announcing intents for tokens the swap contract
	// cannot move would invite trades that fail settlement.
	if err := approvals.EnsureApprovals(ctx, intents.MakerTokens()); err != nil {
		log.WithError(err).Fatal("failed to ensure token approvals")
	}

	if err := router.Connect(ctx); err != nil {
		log.WithError(err).Fatal("failed to connect to relay")
	}
	if err := intents.AnnounceIntents(ctx); err != nil {
		log.WithError(err).Fatal("failed to announce intents")
	}

	stats.EnableMemoryStatistics(
		ctx, time.Duration(config.GetInt(config.StatsIntervalKey))*time.Second,
	)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", config.GetInt(config.HTTPPortKey)),
		Handler: web.NewServer(
			router, signer, ethClient, ethClient, ethClient, intents,
		).Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return router.Run(gctx)
	})
	g.Go(func() error {
		log.WithField("port", config.GetInt(config.HTTPPortKey)).
			Info("operator interface listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("daemon exited with error")
	}
	log.Info("shutdown complete")
}
