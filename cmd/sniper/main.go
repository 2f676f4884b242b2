// ====================================
// File: cmd/sniper/main.go
// ====================================
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rvlabs/pumpfun-sniper/internal/autosell"
	"github.com/rvlabs/pumpfun-sniper/internal/chain"
	"github.com/rvlabs/pumpfun-sniper/internal/config"
	"github.com/rvlabs/pumpfun-sniper/internal/discover"
	"github.com/rvlabs/pumpfun-sniper/internal/engine"
	"github.com/rvlabs/pumpfun-sniper/internal/extract"
	"github.com/rvlabs/pumpfun-sniper/internal/logger"
	"github.com/rvlabs/pumpfun-sniper/internal/tradelog"
	"github.com/rvlabs/pumpfun-sniper/internal/wallet"
	"github.com/rvlabs/pumpfun-sniper/internal/webhook"
)

// envSecrets reads key material from the environment at the process edge.
// The engine itself only ever sees the SecretProvider interface.
type envSecrets struct{}

func (envSecrets) Secret(name string) (string, error) {
	v := os.Getenv("PUMPSNIPE_SECRET_" + name)
	if v == "" {
		return "", fmt.Errorf("secret %q not set", name)
	}
	return v, nil
}

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.DebugLogging, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Sniper exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := wallet.FromProvider(envSecrets{}, cfg.WalletSecretName)
	if err != nil {
		return err
	}
	log.Info("Wallet loaded", zap.String("pubkey", w.String()))

	chainClient := chain.NewClient(cfg.RPCURL, log)

	var trades tradelog.Sink = tradelog.Noop{}
	if cfg.PostgresURL != "" {
		pg, err := tradelog.NewPostgresSink(ctx, cfg.PostgresURL, log)
		if err != nil {
			return fmt.Errorf("trade log sink: %w", err)
		}
		defer pg.Close()
		trades = pg
	}

	opts := engine.DefaultBuildOptions()
	opts.TipLamports = cfg.TipLamports

	fetcher := engine.NewMarketFetcher(chainClient, nil, log)
	builder := engine.NewBuilder(chainClient, w, opts, log)
	eng := engine.New(fetcher, builder, trades, nil, log)

	positions := newPositionBook()
	exitRules := autosell.Config{TakeProfitX: cfg.TakeProfitX, StopLoss: cfg.StopLoss}

	// Every trade extracted from the webhook feed is recorded; prices on
	// mints we hold are additionally run through the exit rules.
	onTrade := func(reqCtx context.Context, signature string, trade *extract.ExtractedTrade) {
		side := "UNKNOWN"
		switch {
		case trade.IsBuy:
			side = "BUY"
		case trade.IsSell:
			side = "SELL"
		}
		entry := tradelog.Entry{
			Mint:        trade.TokenMint,
			Side:        side,
			Price:       trade.Price,
			Amount:      trade.TokenAmount,
			Signature:   &signature,
			TimestampMs: time.Now().UnixMilli(),
		}
		if err := trades.Insert(reqCtx, entry); err != nil {
			log.Warn("Failed to record extracted trade", zap.Error(err))
		}

		pos, held := positions.get(trade.TokenMint)
		if !held || trade.Price <= 0 {
			return
		}
		decision := autosell.Evaluate(pos.entryPrice, trade.Price, exitRules)
		if decision.Action == autosell.ActionNone {
			return
		}
		positions.remove(trade.TokenMint)
		log.Info("Exit rule triggered",
			zap.String("mint", trade.TokenMint),
			zap.String("action", string(decision.Action)),
			zap.Float64("entry_price", pos.entryPrice),
			zap.Float64("current_price", trade.Price))
		go func() {
			if err := sellPosition(ctx, cfg, eng, chainClient, trade.TokenMint, pos); err != nil {
				log.Warn("Exit sell failed", zap.String("mint", trade.TokenMint), zap.Error(err))
			}
		}()
	}

	server := webhook.NewServer(cfg.WebhookAddr, onTrade, log)
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	if err := snipeOnce(ctx, cfg, eng, chainClient, positions, log); err != nil {
		log.Warn("Snipe pass failed", zap.Error(err))
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("webhook server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// position is an open holding awaiting an exit decision.
type position struct {
	entryPrice float64
	tokens     float64
}

// positionBook tracks open positions by mint, shared between the snipe pass
// and the webhook handler.
type positionBook struct {
	mu        sync.Mutex
	positions map[string]position
}

func newPositionBook() *positionBook {
	return &positionBook{positions: make(map[string]position)}
}

func (b *positionBook) put(mint string, p position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[mint] = p
}

func (b *positionBook) get(mint string) (position, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[mint]
	return p, ok
}

func (b *positionBook) remove(mint string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.positions, mint)
}

// snipeOnce runs one discovery-and-buy pass: pull recent launches, filter,
// build a buy for the first candidate, and broadcast it.
func snipeOnce(ctx context.Context, cfg *config.Config, eng *engine.Engine, chainClient *chain.Client, positions *positionBook, log *zap.Logger) error {
	feed := discover.NewClient(cfg.LaunchFeedURL, log)
	launches, err := feed.RecentLaunches(ctx, discover.Filter{
		MinLiquiditySOL: cfg.MinLiquiditySOL,
		MinVolumeSOL:    cfg.MinVolumeSOL,
		MaxAge:          time.Duration(cfg.MaxAgeMinutes) * time.Minute,
	})
	if err != nil {
		return err
	}
	if len(launches) == 0 {
		log.Info("No launches passed the filter")
		return nil
	}

	mint, err := solana.PublicKeyFromBase58(launches[0].Mint)
	if err != nil {
		return fmt.Errorf("invalid mint from launch feed: %w", err)
	}

	trade, err := eng.Execute(ctx, engine.TradeIntent{
		Mint:           mint,
		Side:           engine.SideBuy,
		AmountSOL:      cfg.BuyAmountSOL,
		PriorityFeeSOL: cfg.PriorityFeeSOL,
	})
	if err != nil {
		return err
	}

	// Broadcast is the caller's job; the engine only builds and signs.
	sig, err := chainClient.SendRawTransaction(ctx, trade.Raw)
	if err != nil {
		return fmt.Errorf("broadcast failed: %w", err)
	}
	positions.put(mint.String(), position{entryPrice: trade.Price, tokens: trade.Amount})
	log.Info("Buy transaction sent",
		zap.String("mint", mint.String()),
		zap.String("signature", sig.String()),
		zap.Float64("price", trade.Price))
	return nil
}

// sellPosition closes a held position at market.
func sellPosition(ctx context.Context, cfg *config.Config, eng *engine.Engine, chainClient *chain.Client, mintStr string, pos position) error {
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return fmt.Errorf("invalid mint %q: %w", mintStr, err)
	}

	trade, err := eng.Execute(ctx, engine.TradeIntent{
		Mint:           mint,
		Side:           engine.SideSell,
		TokenAmount:    pos.tokens,
		PriorityFeeSOL: cfg.PriorityFeeSOL,
	})
	if err != nil {
		return err
	}

	_, err = chainClient.SendRawTransaction(ctx, trade.Raw)
	return err
}
