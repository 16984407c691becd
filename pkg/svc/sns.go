package svc

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"

	"github.com/City-Bureau/showroomchat/pkg/chat"
)

// ChatEventFeed tags chat events on the shared topic so consumers can route them
const ChatEventFeed = "handle_chat_event"

// SNS publishes a message on a topic with a feed attribute
type SNS interface {
	Publish(topicArn, feed, message string) error
}

// SNSClient publishes through the AWS SDK
type SNSClient struct {
	API snsiface.SNSAPI
}

// NewSNSClient builds an SNSClient from the default AWS session
func NewSNSClient() *SNSClient {
	return &SNSClient{API: sns.New(session.Must(session.NewSession()))}
}

// Publish sends message to topicArn, tagged with feed
func (c *SNSClient) Publish(topicArn, feed, message string) error {
	_, err := c.API.Publish(&sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Message:  aws.String(message),
		MessageAttributes: map[string]*sns.MessageAttributeValue{
			"feed": {
				DataType:    aws.String("String"),
				StringValue: aws.String(feed),
			},
		},
	})
	return err
}

// SNSNotifier implements chat.Notifier by publishing events to a topic
type SNSNotifier struct {
	Client   SNS
	TopicArn string
}

// NewSNSNotifier is a constructor for SNSNotifier structs
func NewSNSNotifier(client SNS, topicArn string) *SNSNotifier {
	return &SNSNotifier{Client: client, TopicArn: topicArn}
}

// Notify publishes the event as JSON on ChatEventFeed
func (n *SNSNotifier) Notify(event chat.Event) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("svc: encode event: %w", err)
	}
	if err := n.Client.Publish(n.TopicArn, ChatEventFeed, string(eventJSON)); err != nil {
		return fmt.Errorf("svc: publish event: %w", err)
	}
	return nil
}
