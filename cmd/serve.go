package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/groundedcv/groundedcv/internal/agent"
	"github.com/groundedcv/groundedcv/internal/server"
	"github.com/groundedcv/groundedcv/internal/tailor"
)

const defaultListenAddr = "127.0.0.1:8000"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the groundedcv HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (default is "+defaultListenAddr+")")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting the groundedcv server", zap.String("version", version))

	tailorAgent, err := buildAgent(ctx, config, log)
	if err != nil {
		log.Fatal("building the tailoring agent", zap.Error(err))
	}

	tailorer := newTailorer(tailorAgent, config, log)

	addr := defaultListenAddr
	if config.Server != nil && config.Server.Listen != "" {
		addr = config.Server.Listen
	}

	srv := server.New(server.Config{
		Addr:      addr,
		AppName:   app,
		Version:   version,
		ResumeDir: masterResumeDir(config),
	}, tailorer, log)

	if err := srv.Run(ctx); err != nil {
		log.Fatal("http server failed", zap.Error(err))
	}
}

// newTailorer builds the tailoring service from config.
func newTailorer(tailorAgent *agent.Agent, config *Config, log *zap.Logger) *tailor.Tailorer {
	minScore := 0.0
	maxLogLength := 0
	if config.AI != nil {
		minScore = config.AI.MinimumFitScore
		maxLogLength = config.AI.MaxLogLength
	}
	if minScore < 0 {
		minScore = 0
	}

	return tailor.New(tailorAgent, log, minScore, maxLogLength)
}
