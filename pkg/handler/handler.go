// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package handler exposes the engine's HTTP API: activity ingestion, the
// campaign admin surface, and the retention read endpoints.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/campaign"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
	"github.com/AccelByte/extend-retention-engine/pkg/retention"
	"github.com/AccelByte/extend-retention-engine/pkg/store"
)

// Handler binds the retention service to fiber routes.
type Handler struct {
	svc *retention.Service
}

func New(svc *retention.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts all routes on the app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", h.Health)

	v1 := app.Group("/v1")
	v1.Post("/activity", h.RecordActivity)

	v1.Post("/campaigns", h.CreateCampaign)
	v1.Get("/campaigns", h.ListCampaigns)
	v1.Patch("/campaigns/:id/deactivate", h.DeactivateCampaign)

	v1.Get("/metrics/retention", h.RetentionMetrics)
	v1.Get("/players/:userId/retention", h.PlayerRetention)
	v1.Get("/players/:userId/rewards", h.PlayerRewards)
}

// Health reports the health of the durable store and the cache.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.svc.Ping(c.Context()); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// RecordActivity ingests one behavioral event.
func (h *Handler) RecordActivity(c *fiber.Ctx) error {
	var ev model.ActivityEvent
	if err := c.BodyParser(&ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}

	if err := h.svc.RecordActivity(c.Context(), &ev); err != nil {
		if errors.Is(err, retention.ErrInvalidEvent) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logrus.Errorf("recording activity: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record activity"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "recorded"})
}

// CreateCampaign registers a new targeting campaign.
func (h *Handler) CreateCampaign(c *fiber.Ctx) error {
	var spec campaign.Spec
	if err := c.BodyParser(&spec); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
	}

	created, err := h.svc.CreateCampaign(c.Context(), &spec)
	if err != nil {
		if errors.Is(err, campaign.ErrInvalidCampaign) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		logrus.Errorf("creating campaign: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create campaign"})
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListCampaigns returns every campaign in insertion order.
func (h *Handler) ListCampaigns(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"campaigns": h.svc.ListCampaigns()})
}

// DeactivateCampaign retires a campaign.
func (h *Handler) DeactivateCampaign(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.svc.DeactivateCampaign(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrCampaignNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "campaign not found"})
		}
		logrus.Errorf("deactivating campaign %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to deactivate campaign"})
	}
	return c.JSON(fiber.Map{"status": "deactivated"})
}

// RetentionMetrics returns the cohort retention snapshot.
func (h *Handler) RetentionMetrics(c *fiber.Ctx) error {
	m, err := h.svc.GetRetentionMetrics(c.Context())
	if err != nil {
		logrus.Errorf("computing retention metrics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to compute metrics"})
	}
	return c.JSON(m)
}

// PlayerRetention returns one player's retention view.
func (h *Handler) PlayerRetention(c *fiber.Ctx) error {
	userID := c.Params("userId")
	data, err := h.svc.GetPlayerRetentionData(c.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrPlayerNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "player not found"})
		}
		logrus.Errorf("loading retention data for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load retention data"})
	}
	return c.JSON(data)
}

// PlayerRewards returns the player's live offer and comeback bonus from the
// cache.
func (h *Handler) PlayerRewards(c *fiber.Ctx) error {
	userID := c.Params("userId")
	rewards, err := h.svc.GetPlayerRewards(c.Context(), userID)
	if err != nil {
		logrus.Errorf("loading rewards for user %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load rewards"})
	}
	return c.JSON(rewards)
}
