package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/drblury/mongoweaver/config"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

const (
	configFlag           = "config"
	mongoURIFlag         = "mongo-uri"
	databaseFlag         = "database"
	addressFlag          = "address"
	validateRequestsFlag = "validate-requests"
	inMemoryFlag         = "in-memory"
	debugFlag            = "debug"
)

func main() {
	if err := buildApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildApp() *cli.App {
	app := cli.NewApp()
	app.Name = "mongoweaver"
	app.Usage = "serve REST resources for the models in a YAML file"
	app.Version = version
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   configFlag + ", c",
			Usage:  "path to the YAML configuration",
			EnvVar: "MONGOWEAVER_CONFIG",
			Value:  "mongoweaver.yaml",
		},
		cli.StringFlag{
			Name:   mongoURIFlag,
			Usage:  "MongoDB connection string",
			EnvVar: "MONGOWEAVER_MONGO_URI",
		},
		cli.StringFlag{
			Name:   databaseFlag,
			Usage:  "MongoDB database name",
			EnvVar: "MONGOWEAVER_DATABASE",
		},
		cli.StringFlag{
			Name:   addressFlag,
			Usage:  "listen address",
			EnvVar: "MONGOWEAVER_ADDRESS",
		},
		cli.BoolFlag{
			Name:   validateRequestsFlag,
			Usage:  "validate requests against the generated OpenAPI document",
			EnvVar: "MONGOWEAVER_VALIDATE_REQUESTS",
		},
		cli.BoolFlag{
			Name:  inMemoryFlag,
			Usage: "keep documents in process memory instead of MongoDB",
		},
		cli.BoolFlag{
			Name:   debugFlag,
			Usage:  "log at debug level",
			EnvVar: "MONGOWEAVER_DEBUG",
		},
	}
	app.Action = func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if c.Bool(debugFlag) {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

		return serve(c, cfg, logger, c.Bool(inMemoryFlag))
	}
	return app
}

// loadConfig reads the config file and lets flags override its settings.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String(configFlag))
	if err != nil {
		return nil, err
	}
	if c.IsSet(mongoURIFlag) {
		cfg.Mongo.URI = c.String(mongoURIFlag)
	}
	if c.IsSet(databaseFlag) {
		cfg.Mongo.Database = c.String(databaseFlag)
	}
	if c.IsSet(addressFlag) {
		cfg.Server.Address = c.String(addressFlag)
	}
	if c.IsSet(validateRequestsFlag) {
		cfg.Server.ValidateRequests = c.Bool(validateRequestsFlag)
	}
	return cfg, nil
}
