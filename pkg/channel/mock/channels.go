// Package mock provides channel doubles for unit tests.
package mock

import (
	"context"
	"sync"
)

// NotificationCall tracks parameters for Notification.Send calls.
type NotificationCall struct {
	UserID  string
	Message string
	Data    map[string]string
}

// Notification is a mock channel.Notification.
type Notification struct {
	// SendFunc, when set, is called instead of the default behavior.
	SendFunc func(ctx context.Context, userID, message string, data map[string]string) error

	// DefaultError is returned when SendFunc is nil.
	DefaultError error

	mu    sync.Mutex
	Calls []NotificationCall
}

func (m *Notification) Send(ctx context.Context, userID, message string, data map[string]string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, NotificationCall{UserID: userID, Message: message, Data: data})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, userID, message, data)
	}
	return m.DefaultError
}

// CallCount returns how many sends were attempted.
func (m *Notification) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// EmailCall tracks parameters for Email.Send calls.
type EmailCall struct {
	Email   string
	Subject string
	Body    string
}

// Email is a mock channel.Email.
type Email struct {
	SendFunc     func(ctx context.Context, email, subject, body string, data map[string]string) error
	DefaultError error

	mu    sync.Mutex
	Calls []EmailCall
}

func (m *Email) Send(ctx context.Context, email, subject, body string, data map[string]string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, EmailCall{Email: email, Subject: subject, Body: body})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, email, subject, body, data)
	}
	return m.DefaultError
}

// SMSCall tracks parameters for SMS.Send calls.
type SMSCall struct {
	Phone   string
	Message string
}

// SMS is a mock channel.SMS.
type SMS struct {
	SendFunc     func(ctx context.Context, phone, message string) error
	DefaultError error

	mu    sync.Mutex
	Calls []SMSCall
}

func (m *SMS) Send(ctx context.Context, phone, message string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, SMSCall{Phone: phone, Message: message})
	m.mu.Unlock()
	if m.SendFunc != nil {
		return m.SendFunc(ctx, phone, message)
	}
	return m.DefaultError
}
