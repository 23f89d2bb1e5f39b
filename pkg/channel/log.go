package channel

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogNotification is a Notification that only logs. Used for local runs
// where no push provider is configured.
type LogNotification struct{}

func (LogNotification) Send(_ context.Context, userID, message string, data map[string]string) error {
	logrus.Infof("push to user %s: %s (data: %v)", userID, message, data)
	return nil
}

// LogEmail is an Email that only logs.
type LogEmail struct{}

func (LogEmail) Send(_ context.Context, email, subject, body string, _ map[string]string) error {
	logrus.Infof("email to %s: subject=%q body=%q", email, subject, body)
	return nil
}

// LogSMS is an SMS that only logs.
type LogSMS struct{}

func (LogSMS) Send(_ context.Context, phone, message string) error {
	logrus.Infof("sms to %s: %s", phone, message)
	return nil
}
