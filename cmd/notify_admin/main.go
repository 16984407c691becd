package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sfreiberg/gotwilio"

	"github.com/City-Bureau/showroomchat/pkg/chat"
	"github.com/City-Bureau/showroomchat/pkg/config"
	"github.com/City-Bureau/showroomchat/pkg/svc"
)

// HandleRecords texts the admin for every chat event in the batch. Records on
// other feeds are skipped.
func HandleRecords(records []events.SNSEventRecord, notifier chat.Notifier, logger *slog.Logger) error {
	for _, record := range records {
		snsRecord := record.SNS
		feed, ok := snsRecord.MessageAttributes["feed"]
		if !ok {
			logger.Info("notify_admin: feed not present in SNS message", "message_id", snsRecord.MessageID)
			continue
		}
		if feedValue(feed) != svc.ChatEventFeed {
			logger.Info("notify_admin: no handler for feed", "feed", feed)
			continue
		}

		var event chat.Event
		if err := json.Unmarshal([]byte(snsRecord.Message), &event); err != nil {
			return err
		}
		if err := notifier.Notify(event); err != nil {
			return err
		}
		logger.Info("notify_admin: sent", "type", event.Type, "session_id", event.SessionID)
	}
	return nil
}

// feedValue reads a message attribute, which SNS delivers to Lambda as an
// object with a Value field
func feedValue(attr interface{}) string {
	switch v := attr.(type) {
	case string:
		return v
	case map[string]interface{}:
		if value, ok := v["Value"].(string); ok {
			return value
		}
	}
	return ""
}

func handler(request events.SNSEvent) error {
	if len(request.Records) < 1 {
		return nil
	}
	logger := config.NewLogger(os.Stdout, config.LogConfig{Format: "json"})
	client := gotwilio.NewTwilioClient(
		os.Getenv("TWILIO_ACCOUNT_SID"),
		os.Getenv("TWILIO_AUTH_TOKEN"),
	)
	notifier := svc.NewTwilioNotifier(
		client,
		os.Getenv("TWILIO_FROM"),
		os.Getenv("SHOWROOM_ADMIN_PHONE"),
		os.Getenv("SHOWROOM_LOCALE"),
	)
	return HandleRecords(request.Records, notifier, logger)
}

func main() {
	lambda.Start(handler)
}
