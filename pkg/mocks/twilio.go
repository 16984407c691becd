package mocks

import (
	"github.com/sfreiberg/gotwilio"
	"github.com/stretchr/testify/mock"
)

// TwilioClientMock is a mock for Twilio
type TwilioClientMock struct {
	mock.Mock
}

// SendSMS mocks sending Twilio SMS
func (m *TwilioClientMock) SendSMS(from, to, body, statusCallback, applicationSid string) (*gotwilio.SmsResponse, *gotwilio.Exception, error) {
	args := m.Called(from, to, body, statusCallback, applicationSid)
	var exception *gotwilio.Exception
	if e, ok := args.Get(1).(*gotwilio.Exception); ok {
		exception = e
	}
	var res *gotwilio.SmsResponse
	if r, ok := args.Get(0).(*gotwilio.SmsResponse); ok {
		res = r
	}
	return res, exception, args.Error(2)
}
