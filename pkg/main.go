package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkg "github.com/eventhost/pulse/pkg/internal"
	"github.com/eventhost/pulse/pkg/internal/auth"
	"github.com/eventhost/pulse/pkg/internal/cache"
	"github.com/eventhost/pulse/pkg/internal/database"
	"github.com/eventhost/pulse/pkg/internal/http"
	"github.com/eventhost/pulse/pkg/internal/services"
	"github.com/eventhost/pulse/pkg/internal/ws"
	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString(" ____        _\n|  _ \\ _   _| |___  ___\n| |_) | | | | / __|/ _ \\\n|  __/| |_| | \\__ \\  __/\n|_|    \\__,_|_|___/\\___|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("EventHost.Pulse"), pkg.AppVersion)
	fmt.Printf("The live communication core of EventHost\n")
	color.HiBlack("=====================================================\n")

	// Configure settings
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("settings")
	viper.SetConfigType("toml")

	// Load settings
	if err := viper.ReadInConfig(); err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}

	// Load the token reader of the auth collaborator
	if reader, err := auth.NewTokenReader(viper.GetString("security.jwt_secret")); err != nil {
		log.Error().Err(err).Msg("An error occurred when loading jwt secret. Authenticated features will be disabled.")
	} else {
		auth.Reader = reader
		log.Info().Msg("Auth token reader loaded.")
	}

	// Connect to database
	if err := database.NewGorm(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when connect to database.")
	} else if err := database.RunMigration(database.C); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when running database auto migration.")
	}

	// Prepare local cache
	if err := cache.NewStore(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when setting up local cache.")
	}

	// Broadcast hub
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub()
	go hub.Run(ctx)
	services.SetBroadcaster(hub)

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	quartz.AddFunc("@every 60m", services.DoVoteRecount)
	quartz.Start()

	// Server
	go http.NewServer(hub).Listen()

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	quartz.Stop()
	cancel()
}
