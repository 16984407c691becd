package mocks

import "github.com/stretchr/testify/mock"

// SNSMock is a mock for SNS publishing
type SNSMock struct {
	mock.Mock
}

// Publish mocks publishing to a topic
func (m *SNSMock) Publish(topicArn, feed, message string) error {
	args := m.Called(topicArn, feed, message)
	return args.Error(0)
}
