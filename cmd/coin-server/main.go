package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"hearthcoin/internal/boot"
	"hearthcoin/internal/bots"
	"hearthcoin/internal/handlers"
	"hearthcoin/internal/service/admin"
	"hearthcoin/internal/service/asset"
	"hearthcoin/internal/service/ledger"
	"hearthcoin/internal/service/market"
	"hearthcoin/internal/service/notify"
	"hearthcoin/internal/service/user"
	"hearthcoin/internal/store"
	"hearthcoin/internal/worker"
)

func main() {
	_ = godotenv.Load()

	bootConfig, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	db, err := store.Open(bootConfig.Database.DSN)
	if err != nil {
		log.Fatalf("opening database: %+v", err)
	}
	defer db.Close()

	ledgerService := ledger.New(db)
	notifyService := notify.New(db)
	assetService := asset.New(db, ledgerService)
	marketService := market.New(db, ledgerService, notifyService)
	userService := user.New(db, ledgerService, notifyService, &bootConfig)
	adminService := admin.New(db, ledgerService, assetService, marketService, notifyService)

	server := echo.New()
	server.HideBanner = true
	server.HTTPErrorHandler = handlers.HTTPErrorHandler
	server.Use(middleware.BodyLimit("1M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("hearthcoin"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     bootConfig.Server.Origins,
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	server.GET("/status", handlers.Status(db))
	server.POST("/genesis_register", handlers.GenesisRegister(userService))
	server.POST("/register", handlers.Register(userService))
	server.POST("/login", handlers.Login(userService))

	server.GET("/users", handlers.UserList(userService))
	server.GET("/user/:handle", handlers.UserDetails(userService))
	server.GET("/user/:handle/profile", handlers.UserProfile(userService))
	server.POST("/profile/update", handlers.UpdateProfile(userService))

	server.GET("/balance/:key", handlers.Balance(ledgerService))
	server.GET("/transactions/:key", handlers.Transactions(ledgerService))
	server.POST("/transfer", handlers.Transfer(userService))

	server.POST("/invites/generate", handlers.GenerateInvite(userService))
	server.GET("/invites/:key", handlers.Invitations(userService))

	server.POST("/friends/request", handlers.RequestFriend(userService))
	server.POST("/friends/respond", handlers.RespondFriend(userService))
	server.POST("/friends/remove", handlers.RemoveFriend(userService))
	server.GET("/friends/:key", handlers.FriendList(userService))
	server.GET("/friends/:key/requests", handlers.FriendRequests(userService))

	server.GET("/nfts/:key", handlers.OwnedAssets(assetService))
	server.GET("/nft/:id", handlers.AssetDetails(assetService))
	server.POST("/nft/action", handlers.AssetAction(assetService))
	server.GET("/shop", handlers.ShopCatalog())
	server.POST("/shop/create", handlers.ShopCreate(assetService))
	server.POST("/shop/action", handlers.ShopAction(assetService))

	server.GET("/notifications/:key", handlers.Notifications(notifyService))
	server.POST("/notifications/read", handlers.MarkNotificationRead(notifyService))

	server.GET("/market/listings", handlers.Listings(marketService))
	server.GET("/market/listing/:id", handlers.ListingDetails(marketService))
	server.GET("/market/listing/:id/offers", handlers.ListingOffers(marketService))
	server.GET("/market/listing/:id/bids", handlers.ListingBids(marketService))
	server.POST("/market/create", handlers.CreateListing(marketService))
	server.POST("/market/cancel", handlers.CancelListing(marketService))
	server.POST("/market/buy", handlers.BuyListing(marketService))
	server.POST("/market/bid", handlers.PlaceBid(marketService))
	server.POST("/market/offer", handlers.MakeOffer(marketService))
	server.POST("/market/respond_offer", handlers.RespondOffer(marketService))
	server.GET("/market/activity/:key", handlers.MarketActivity(marketService))
	server.GET("/market/history", handlers.MarketHistory(marketService))

	adminGroup := server.Group("/admin", handlers.AdminAuth(bootConfig.Admin.SecretKey))
	adminGroup.POST("/issue", handlers.AdminIssue(adminService))
	adminGroup.POST("/multi_issue", handlers.AdminMultiIssue(adminService))
	adminGroup.POST("/burn", handlers.AdminBurn(adminService))
	adminGroup.POST("/quota", handlers.AdminAdjustQuota(adminService))
	adminGroup.POST("/set_active", handlers.AdminSetActive(adminService))
	adminGroup.POST("/reset_password", handlers.AdminResetPassword(adminService))
	adminGroup.POST("/mint", handlers.AdminMintAsset(adminService))
	adminGroup.GET("/mint_configs", handlers.AdminMintConfigs())
	adminGroup.POST("/purge", handlers.AdminPurge(adminService))
	adminGroup.GET("/settings", handlers.AdminSettings(adminService))
	adminGroup.POST("/settings", handlers.AdminUpdateSettings(adminService))
	adminGroup.GET("/balances", handlers.AdminBalances(adminService))
	adminGroup.GET("/trade_history", handlers.AdminTradeHistory(adminService))
	adminGroup.POST("/bots/create", handlers.AdminCreateBot(adminService))
	adminGroup.GET("/bots", handlers.AdminBots(adminService))
	adminGroup.POST("/bots/config", handlers.AdminSetBotConfig(adminService))
	adminGroup.GET("/bots/logs", handlers.AdminBotLogs(adminService))
	adminGroup.POST("/nuke", handlers.AdminNuke(adminService))

	sweeper := worker.NewSweeper(marketService, assetService)
	if err := sweeper.Start(time.Duration(bootConfig.SweepInterval) * time.Second); err != nil {
		log.Fatalf("starting sweeper: %+v", err)
	}
	defer sweeper.Stop()

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	defer stopRunner()
	runner := bots.NewRunner(db, fmt.Sprintf("http://127.0.0.1:%d", bootConfig.Server.Port))
	go runner.Run(runnerCtx)

	go func() {
		metrics := echo.New()
		metrics.HideBanner = true
		metrics.GET("/metrics", echoprometheus.NewHandler())
		addr := fmt.Sprintf(":%d", bootConfig.Server.MetricsPort)
		if err := metrics.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", bootConfig.Server.Port)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
