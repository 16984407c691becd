package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sfreiberg/gotwilio"

	"github.com/City-Bureau/showroomchat/pkg/chat"
	"github.com/City-Bureau/showroomchat/pkg/config"
	"github.com/City-Bureau/showroomchat/pkg/settings"
	"github.com/City-Bureau/showroomchat/pkg/storage"
	"github.com/City-Bureau/showroomchat/pkg/svc"
)

// app bundles everything a command needs, built from one config file
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *chat.Store
	site     *settings.Store
	source   *chat.PollingSource
	notifier chat.Notifier
	close    func() error
}

func loadApp(configPath string, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(logOut, cfg.Log)

	kv, closeFn, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}
	store := chat.NewStore(kv, logger)

	notifier, err := newNotifier(cfg)
	if err != nil {
		closeFn()
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		site:     settings.NewStore(kv, cfg.Site, logger),
		source:   chat.NewPollingSource(store, cfg.Chat.PollInterval),
		notifier: notifier,
		close:    closeFn,
	}, nil
}

func newNotifier(cfg *config.Config) (chat.Notifier, error) {
	switch cfg.Notify.Driver {
	case "none":
		return chat.NopNotifier{}, nil
	case "sns":
		return svc.NewSNSNotifier(svc.NewSNSClient(), cfg.Notify.SNSTopicArn), nil
	case "twilio":
		client := gotwilio.NewTwilioClient(cfg.Notify.TwilioSID, cfg.Notify.TwilioToken)
		return svc.NewTwilioNotifier(client, cfg.Notify.TwilioFrom, cfg.Admin.NotifyPhone, cfg.Chat.Locale), nil
	default:
		return nil, fmt.Errorf("notify: unsupported driver %q", cfg.Notify.Driver)
	}
}
