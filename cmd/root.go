package cmd

import (
	"context"
	"os"
	"time"

	"github.com/dennis-nst/no-lose/core/config"
	coreDB "github.com/dennis-nst/no-lose/core/database"
	domainBridge "github.com/dennis-nst/no-lose/domains/bridge"
	domainChat "github.com/dennis-nst/no-lose/domains/chat"
	domainCloud "github.com/dennis-nst/no-lose/domains/cloud"
	domainHealth "github.com/dennis-nst/no-lose/domains/health"
	domainInstance "github.com/dennis-nst/no-lose/domains/instance"
	bridgeInfra "github.com/dennis-nst/no-lose/infrastructure/bridge"
	cloudInfra "github.com/dennis-nst/no-lose/infrastructure/cloudapi"
	"github.com/dennis-nst/no-lose/pkg/utils"
	"github.com/dennis-nst/no-lose/repository"
	"github.com/dennis-nst/no-lose/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

var (
	db *gorm.DB

	// Outbound clients
	bridgeClient domainBridge.IBridgeClient
	cloudClient  domainCloud.ICloudClient

	// Usecase
	instanceUsecase domainInstance.IInstanceUsecase
	chatUsecase     domainChat.IChatUsecase
	cloudUsecase    domainCloud.ICloudUsecase
	webhookUsecase  domainBridge.IWebhookUsecase
	healthUsecase   domainHealth.IHealthUsecase
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "no-lose",
	Short: "WhatsApp messaging backend over http api",
	Long: `Dual-transport WhatsApp backend: a Meta-hosted Cloud API number plus
per-user self-hosted bridge instances, reconciled into one message store.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringP("port", "p", "3000", "change port number with --port <number> | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	rootCmd.PersistentFlags().String("db-driver", "", `database driver, sqlite or postgres | example: --db-driver="postgres"`)
	rootCmd.PersistentFlags().String("db-name", "", `database file path for sqlite, database name for postgres | example: --db-name="storages/app.db"`)
	rootCmd.PersistentFlags().String("bridge-url", "", `self-hosted bridge base url | example: --bridge-url="http://evolution:8080"`)

	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("db_driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	_ = viper.BindPFlag("db_name", rootCmd.PersistentFlags().Lookup("db-name"))
	_ = viper.BindPFlag("bridge_api_url", rootCmd.PersistentFlags().Lookup("bridge-url"))
}

// applyFlagOverrides lets explicit flags win over environment configuration.
func applyFlagOverrides(cfg *config.Config) {
	if rootCmd.PersistentFlags().Changed("port") {
		cfg.App.Port = viper.GetString("app_port")
	}
	if rootCmd.PersistentFlags().Changed("debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if v := viper.GetString("db_driver"); v != "" {
		cfg.Database.Driver = v
	}
	if v := viper.GetString("db_name"); v != "" {
		cfg.Database.Name = v
	}
	if v := viper.GetString("bridge_api_url"); v != "" {
		cfg.Bridge.BaseURL = v
	}
}

func initApp() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlagOverrides(cfg)

	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := os.MkdirAll(cfg.Paths.Storages, 0o755); err != nil {
		logrus.Errorln(err)
	}

	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect database: %v", err)
	}

	ctx := context.Background()

	// Repositories
	instanceRepo := repository.NewInstanceGormRepository(db)
	contactRepo := repository.NewContactGormRepository(db)
	messageRepo := repository.NewMessageGormRepository(db)
	conversationRepo := repository.NewConversationGormRepository(db)

	for _, migrate := range []func(context.Context) error{
		instanceRepo.InitSchema,
		contactRepo.InitSchema,
		messageRepo.InitSchema,
		conversationRepo.InitSchema,
	} {
		if err := migrate(ctx); err != nil {
			logrus.Fatalf("Failed to migrate database schema: %v", err)
		}
	}

	// Outbound clients
	bridgeClient = bridgeInfra.NewClient(cfg.Bridge)
	cloudClient = cloudInfra.NewClient(cfg.CloudAPI)

	// Usecases
	instanceUsecase = usecase.NewInstanceService(instanceRepo, bridgeClient, cfg.Bridge.QRSettleDelay)
	chatUsecase = usecase.NewChatService(instanceRepo, contactRepo, messageRepo, conversationRepo, bridgeClient, cfg.Whatsapp)
	cloudUsecase = usecase.NewCloudService(cloudClient, contactRepo, messageRepo, conversationRepo)
	webhookUsecase = usecase.NewWebhookService(instanceUsecase, chatUsecase)
	healthUsecase = usecase.NewHealthService(db)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp releases shared resources during graceful shutdown.
func StopApp() {
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
