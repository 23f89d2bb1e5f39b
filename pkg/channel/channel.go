// Package channel defines the outbound delivery contracts the dispatcher
// sends through. Actual delivery (APNs/FCM, mail gateways, SMS brokers) is
// owned by other systems; this engine only depends on the send interfaces.
//
// You may not need to have an interface and can go with direct struct usage,
// but having interfaces allows easier mocking for unit tests.
package channel

import "context"

// Notification delivers push notifications to a player's registered devices.
type Notification interface {
	// Send pushes a notification to the player. data carries optional
	// structured payload fields alongside the message body.
	Send(ctx context.Context, userID, message string, data map[string]string) error
}

// Email delivers email to a player's registered address.
type Email interface {
	Send(ctx context.Context, email, subject, body string, data map[string]string) error
}

// SMS delivers a text message to a player's registered phone number.
type SMS interface {
	Send(ctx context.Context, phone, message string) error
}
