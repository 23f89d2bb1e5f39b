// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/handler"
	"github.com/AccelByte/extend-retention-engine/pkg/retention"
)

// HTTPServer manages the fiber API server lifecycle.
type HTTPServer struct {
	app  *fiber.App
	port int
	svc  *retention.Service
}

// NewHTTPServer creates a new HTTP server instance.
func NewHTTPServer(port int, svc *retention.Service) *HTTPServer {
	return &HTTPServer{
		port: port,
		svc:  svc,
	}
}

// Setup configures the fiber app and mounts all routes.
func (s *HTTPServer) Setup() error {
	s.app = fiber.New(fiber.Config{
		AppName:               "retention-engine",
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(fiberlogger.New())

	handler.New(s.svc).Register(s.app)

	logrus.Info("registered HTTP routes")
	return nil
}

// Start begins listening and serving HTTP requests.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		logrus.Infof("HTTP server listening on port %d", s.port)
		if err := s.app.Listen(fmt.Sprintf(":%d", s.port)); err != nil {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logrus.Info("shutting down HTTP server...")
	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return err
	}
	logrus.Info("HTTP server stopped")
	return nil
}
