// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

//go:build integration
// +build integration

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/AccelByte/extend-retention-engine/pkg/cache"
	"github.com/AccelByte/extend-retention-engine/pkg/model"
)

// This is a manual integration test for the reward cache.
// Run this with: go run -tags integration test_redis_integration.go
// Requires: Redis running on localhost:6379

func main() {
	logrus.SetLevel(logrus.DebugLevel)
	logrus.Infof("Starting Redis integration test...")

	ctx := context.Background()

	client, err := cache.InitRedisClient(ctx, "localhost:6379", "", 3)
	if err != nil {
		logrus.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer client.Close()

	rewards := cache.NewRewardCache(client)
	testUserID := fmt.Sprintf("test-user-%d", time.Now().Unix())
	logrus.Infof("Testing with user ID: %s", testUserID)

	// Test 1: Missing offer for a new player
	logrus.Infof("=== Test 1: Get offer for new player ===")
	if _, err := rewards.GetOffer(ctx, testUserID); err != cache.ErrNotFound {
		logrus.Fatalf("expected ErrNotFound, got: %v", err)
	}
	logrus.Infof("✓ New player has no cached offer")

	// Test 2: Put and read back an offer
	logrus.Infof("=== Test 2: Put and get offer ===")
	offer := &model.Offer{
		ID:        uuid.NewString(),
		UserID:    testUserID,
		Message:   "25% off the starter bundle",
		Discount:  0.25,
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := rewards.PutOffer(ctx, offer, time.Minute); err != nil {
		logrus.Fatalf("PutOffer failed: %v", err)
	}
	got, err := rewards.GetOffer(ctx, testUserID)
	if err != nil {
		logrus.Fatalf("GetOffer failed: %v", err)
	}
	logrus.Infof("✓ Round-tripped offer: id=%s discount=%.2f", got.ID, got.Discount)

	// Test 3: Put and read back a comeback bonus
	logrus.Infof("=== Test 3: Put and get bonus ===")
	bonus := &model.ComebackBonus{
		ID:        uuid.NewString(),
		UserID:    testUserID,
		Message:   "welcome back!",
		Rewards:   []string{"gold_100", "gem_10"},
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := rewards.PutBonus(ctx, bonus, time.Minute); err != nil {
		logrus.Fatalf("PutBonus failed: %v", err)
	}
	gotBonus, err := rewards.GetBonus(ctx, testUserID)
	if err != nil {
		logrus.Fatalf("GetBonus failed: %v", err)
	}
	logrus.Infof("✓ Round-tripped bonus: id=%s rewards=%v", gotBonus.ID, gotBonus.Rewards)

	logrus.Infof("All Redis integration tests passed")
}
