package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"

	"github.com/City-Bureau/showroomchat/pkg/chat"
	"github.com/City-Bureau/showroomchat/pkg/svc"
)

type recordingNotifier struct {
	events []chat.Event
	err    error
}

func (r *recordingNotifier) Notify(e chat.Event) error {
	r.events = append(r.events, e)
	return r.err
}

func snsRecord(t *testing.T, feed interface{}, event chat.Event) events.SNSEventRecord {
	body, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	attrs := map[string]interface{}{}
	if feed != nil {
		attrs["feed"] = feed
	}
	return events.SNSEventRecord{SNS: events.SNSEntity{Message: string(body), MessageAttributes: attrs}}
}

func TestHandleRecords(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	event := chat.NewEvent(chat.EventVisitorMessage, chat.Session{ID: "s1", VisitorName: "Sara"}, "السعر؟", time.Now())
	notifier := &recordingNotifier{}

	records := []events.SNSEventRecord{
		snsRecord(t, map[string]interface{}{"Type": "String", "Value": svc.ChatEventFeed}, event),
		snsRecord(t, svc.ChatEventFeed, event),
		snsRecord(t, "other_feed", event),
		snsRecord(t, nil, event),
	}
	assert.NoError(t, HandleRecords(records, notifier, logger))
	assert.Len(t, notifier.events, 2)
	assert.Equal(t, "s1", notifier.events[0].SessionID)
	assert.Equal(t, "السعر؟", notifier.events[0].Text)
}

func TestHandleRecordsNotifierError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	notifier := &recordingNotifier{err: errors.New("twilio down")}
	records := []events.SNSEventRecord{snsRecord(t, svc.ChatEventFeed, chat.Event{SessionID: "s1"})}
	assert.Error(t, HandleRecords(records, notifier, logger))
}

func TestHandleRecordsBadBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	record := events.SNSEventRecord{SNS: events.SNSEntity{
		Message:           "not json",
		MessageAttributes: map[string]interface{}{"feed": svc.ChatEventFeed},
	}}
	assert.Error(t, HandleRecords([]events.SNSEventRecord{record}, &recordingNotifier{}, logger))
}
