package bots

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"hearthcoin/internal/model"
	"hearthcoin/internal/store"
)

// Runner drives the bot population. Each cycle it reloads the roster
// and the runtime settings, rolls each active bot against its action
// probability and runs the winners concurrently. Everything a bot does
// goes through the public API and lands in the bot log.
type Runner struct {
	store   *store.Store
	baseURL string
	logger  *log.Logger
}

func NewRunner(st *store.Store, baseURL string) *Runner {
	logger := log.New("bots")
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")
	return &Runner{store: st, baseURL: baseURL, logger: logger}
}

// Run blocks until the context is cancelled. The cycle interval and the
// enable switch are settings, so an admin can change them live.
func (r *Runner) Run(ctx context.Context) {
	for {
		interval := store.SettingInt(r.store.DB(), model.SettingBotCheckInterval, 30)
		if interval < 5 {
			interval = 5
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(interval) * time.Second):
		}

		if !store.SettingBool(r.store.DB(), model.SettingBotSystemEnabled) {
			continue
		}
		if err := r.Tick(); err != nil {
			r.logger.Errorf("bot cycle: %v", err)
		}
	}
}

// Tick runs one cycle over the current roster.
func (r *Runner) Tick() error {
	roster, err := store.AllBots(r.store.DB(), false)
	if err != nil {
		return fmt.Errorf("loading bot roster: %w", err)
	}

	wg := sync.WaitGroup{}
	for i := range roster {
		bot := roster[i]
		if rand.Float64() >= bot.ActionProbability {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.runTurn(&bot)
		}()
	}
	wg.Wait()
	return nil
}

func (r *Runner) runTurn(bot *model.BotInfo) {
	run, ok := behaviors[bot.BotType]
	if !ok {
		r.logger.Errorf("%s has unknown type %s", bot.Username, bot.BotType)
		return
	}

	client := NewClient(r.baseURL, bot)
	outcome, err := run(client)

	entry := &model.BotLog{
		ID:           model.CreateID(),
		Timestamp:    float64(time.Now().Unix()),
		BotKey:       bot.PublicKey,
		BotUsername:  bot.Username,
		DataSnapshot: fmt.Sprintf(`{"balance":%.4f}`, bot.Balance),
	}
	switch {
	case err != nil:
		entry.ActionType = "ERROR"
		entry.Message = err.Error()
		r.logger.Warnf("%s: %v", bot.Username, err)
	case outcome.Skipped:
		entry.ActionType = outcome.ActionType
		entry.Message = outcome.Message
	default:
		entry.ActionType = outcome.ActionType
		entry.Message = outcome.Message
		r.logger.Infof("%s: %s", bot.Username, outcome.Message)
	}

	if err := store.InsertBotLog(r.store.DB(), entry); err != nil {
		r.logger.Errorf("recording bot log: %v", err)
	}
}
