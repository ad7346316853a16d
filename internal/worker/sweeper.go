package worker

import (
	"fmt"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"

	"hearthcoin/internal/service/asset"
	"hearthcoin/internal/service/market"
)

// Sweeper settles expired auctions and destroys timed-out assets on a
// fixed schedule. Both jobs are idempotent, so an overlapping or missed
// run is harmless.
type Sweeper struct {
	market *market.Service
	asset  *asset.Service
	cron   *cron.Cron
	logger *log.Logger
}

func NewSweeper(mk *market.Service, as *asset.Service) *Sweeper {
	logger := log.New("sweeper")
	logger.SetHeader("${time_rfc3339} ${level} ${prefix}")
	return &Sweeper{market: mk, asset: as, logger: logger}
}

func (s *Sweeper) Start(interval time.Duration) error {
	if s.cron != nil {
		return nil
	}
	s.cron = cron.New()
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.Sweep)
	if err != nil {
		return fmt.Errorf("scheduling sweeper: %w", err)
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Sweep runs one pass of both jobs.
func (s *Sweeper) Sweep() {
	settled, err := s.market.ResolveFinishedAuctions()
	if err != nil {
		s.logger.Errorf("settling auctions: %v", err)
	} else if settled > 0 {
		s.logger.Infof("settled %d auctions", settled)
	}

	destroyed, err := s.asset.DestroyExpired()
	if err != nil {
		s.logger.Errorf("destroying expired assets: %v", err)
	} else if destroyed > 0 {
		s.logger.Infof("destroyed %d expired assets", destroyed)
	}
}
