package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"player-auction/internal/config"
	"player-auction/internal/domain"
	redisinfra "player-auction/internal/infrastructure/redis"
	"player-auction/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
)

// The ticker follows the mirrored event stream and narrates the run.
// It is the companion process for terminals without a websocket client.
func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	subscriber := redisinfra.NewRedisEventSubscriber(rdb, log)

	runCtx, stop := context.WithCancel(context.Background())
	go func() {
		err := subscriber.SubscribeToAuctionEvents(runCtx, func(event *domain.AuctionEvent) error {
			narrate(log, event)
			return nil
		})
		if err != nil && runCtx.Err() == nil {
			log.Error("event stream failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stop()
	log.Info("ticker stopped")
}

func narrate(log logger.Logger, event *domain.AuctionEvent) {
	switch event.Type {
	case domain.EventLotOpened:
		if event.Player != nil && event.Lot != nil {
			log.Info("on the block", "player", event.Player.FullName(),
				"role", event.Player.Role, "opening_price", event.Lot.OpeningPrice)
		}
	case domain.EventBidAccepted:
		if event.Bid != nil {
			log.Info("bid", "team_id", event.Bid.TeamID, "amount", event.Bid.Amount, "seq", event.Bid.Seq)
		}
	case domain.EventLotFinalized:
		if event.Result != nil {
			if event.Result.Outcome == domain.LotSold {
				log.Info("sold", "player_id", event.Result.PlayerID,
					"team_id", event.Result.TeamID, "price", event.Result.Price)
			} else {
				log.Info(event.Result.Outcome.String(), "player_id", event.Result.PlayerID)
			}
		}
	case domain.EventRunPaused:
		log.Info("auction paused", "run_id", event.RunID)
	case domain.EventRunResumed:
		log.Info("auction resumed", "run_id", event.RunID)
	case domain.EventRunCompleted:
		log.Info("auction completed", "run_id", event.RunID)
	}
}
