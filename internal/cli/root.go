package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	MongoURI string
	Database string
	Verbose  bool
}

// NewRootCommand creates the root command for intikhabctl.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "intikhabctl",
		Short: "Intikhab operator tools",
		Long:  "Seed poetry data and maintain the Intikhab MongoDB database.",

		SilenceErrors: true, // main prints the error
	}

	cmd.PersistentFlags().StringVar(&opts.MongoURI, "mongo_uri", envOr("INTIKHAB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	cmd.PersistentFlags().StringVar(&opts.Database, "mongo_database", envOr("INTIKHAB_MONGO_DATABASE", "intikhab"), "MongoDB database name")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewIndexesCommand(opts))

	return cmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (o *RootOptions) logger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if o.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// connect opens the database and returns a func that disconnects it.
func (o *RootOptions) connect(ctx context.Context) (*mongo.Database, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(o.MongoURI).SetAppName("intikhabctl"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(o.Database), func() { _ = client.Disconnect(context.Background()) }, nil
}
