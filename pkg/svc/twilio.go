package svc

import (
	"fmt"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/sfreiberg/gotwilio"

	"github.com/City-Bureau/showroomchat/pkg/chat"
	"github.com/City-Bureau/showroomchat/pkg/locale"
)

// TwilioClient generalizes access to Twilio
type TwilioClient interface {
	SendSMS(string, string, string, string, string) (*gotwilio.SmsResponse, *gotwilio.Exception, error)
}

// TwilioNotifier implements chat.Notifier by texting the showroom's staff phone
type TwilioNotifier struct {
	Client    TwilioClient
	From      string // The Twilio number
	To        string // The staff phone receiving alerts
	localizer *i18n.Localizer
}

// NewTwilioNotifier is a constructor for TwilioNotifier structs
func NewTwilioNotifier(client TwilioClient, from, to, lang string) *TwilioNotifier {
	return &TwilioNotifier{
		Client:    client,
		From:      from,
		To:        to,
		localizer: locale.LoadLocalizer(lang),
	}
}

// Body renders the alert text for an event
func (n *TwilioNotifier) Body(event chat.Event) string {
	data := map[string]interface{}{
		"Name":  event.VisitorName,
		"Phone": event.VisitorPhone,
		"Text":  event.Text,
	}
	switch event.Type {
	case chat.EventSessionStarted:
		return locale.Text(n.localizer, "notify-session-started", data)
	default:
		return locale.Text(n.localizer, "notify-visitor-message", data)
	}
}

// Notify sends the alert as an SMS
func (n *TwilioNotifier) Notify(event chat.Event) error {
	_, twilioErr, err := n.Client.SendSMS(n.From, n.To, n.Body(event), "", "")
	if err != nil {
		return fmt.Errorf("svc: send sms: %w", err)
	}
	if twilioErr != nil {
		return fmt.Errorf("svc: Twilio returned error code %d: %s", twilioErr.Code, twilioErr.Message)
	}
	return nil
}
