package main

import (
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/City-Bureau/showroomchat/pkg/config"
	"github.com/City-Bureau/showroomchat/pkg/storage"
)

func handler(request events.CloudWatchEvent) error {
	logger := config.NewLogger(os.Stdout, config.LogConfig{Format: "json"})
	driver := os.Getenv("SHOWROOM_STORAGE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}
	db, err := storage.OpenDB(driver, os.Getenv("SHOWROOM_STORAGE_DSN"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.Migrate(db); err != nil {
		return err
	}
	logger.Info("migrate: storage table ready", "driver", driver)
	return nil
}

func main() {
	lambda.Start(handler)
}
