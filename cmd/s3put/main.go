package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"s3put/internal/config"
	"s3put/internal/logging"
	"s3put/internal/metadata"
	"s3put/internal/sigv4"
	"s3put/internal/transport"
	"s3put/internal/upload"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("s3put", flag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: s3put [-config path] [-region name] <bucket> <dest-dir> <file>\n")
		flags.PrintDefaults()
	}
	configPath := flags.String("config", "", "path to config file")
	regionFlag := flags.String("region", "", "bucket region (skips the instance metadata lookup)")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if flags.NArg() != 3 {
		flags.Usage()
		return 2
	}

	target := upload.Target{
		Bucket:    flags.Arg(0),
		DestDir:   flags.Arg(1),
		LocalPath: flags.Arg(2),
	}
	if _, err := os.Stat(target.LocalPath); err != nil {
		fmt.Fprintf(flags.Output(), "s3put: no such file: %s\n", target.LocalPath)
		flags.Usage()
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			log.Printf("startup failed: %v", err)
			return 1
		}
		cfg = loaded
	}

	logger, closeLog, err := logging.Open(cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Printf("startup failed: %v", err)
		return 1
	}
	defer closeLog.Close()

	// Fail on bad arguments before touching the network.
	if err := target.Validate(); err != nil {
		logger.Error("invalid upload target", "error", err)
		return 1
	}

	regionHint := cfg.Region
	if *regionFlag != "" {
		regionHint = *regionFlag
	}

	metadataClient := &http.Client{Timeout: time.Duration(cfg.Metadata.TimeoutSeconds) * time.Second}
	resolver := metadata.NewResolver(cfg.Metadata.Endpoint, metadataClient)

	ctx := context.Background()
	identity, err := resolver.Resolve(ctx, regionHint)
	if err != nil {
		logger.Error("instance metadata resolution failed", "error", err)
		return 1
	}
	region := identity.Region

	logger.Info("resolved instance identity",
		"region", region,
		"access_key_id", identity.AccessKeyID,
		"account_id", identity.AccountID,
		"role", identity.RoleName,
	)

	client, err := transport.New(cfg.Upload)
	if err != nil {
		logger.Error("upload client setup failed", "error", err)
		return 1
	}

	uploader := &upload.Uploader{
		Client:   client,
		Signer:   sigv4.Signer{Region: region, Service: "s3"},
		Logger:   logger,
		Endpoint: cfg.Upload.Endpoint,
	}

	creds := sigv4.Credentials{
		AccessKeyID:     identity.AccessKeyID,
		SecretAccessKey: identity.SecretAccessKey,
		SessionToken:    identity.SessionToken,
	}
	result, err := uploader.Upload(ctx, creds, target)
	if err != nil {
		logger.Error("upload failed", "error", err)
		return 1
	}

	logger.Info("uploaded",
		"bucket", target.Bucket,
		"key", result.Key,
		"host", result.Host,
		"etag", result.ETag,
		"status", result.StatusCode,
	)
	return 0
}
