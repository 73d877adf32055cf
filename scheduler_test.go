package main

import (
	"context"
	"testing"
	"time"

	"wealthify/models"
)

func TestSweepPending(t *testing.T) {
	g := openTestDB(t)
	now := time.Date(2025, time.May, 10, 9, 30, 0, 0, time.UTC)

	if !sweepPending(g, now) {
		t.Error("sweepPending = false with no runs recorded, want true")
	}

	g.Create(&models.SweepRun{RanAt: now.AddDate(0, 0, -1)})
	if !sweepPending(g, now) {
		t.Error("sweepPending = false when last run was yesterday, want true")
	}

	g.Create(&models.SweepRun{RanAt: time.Date(2025, time.May, 10, 0, 0, 5, 0, time.UTC)})
	if sweepPending(g, now) {
		t.Error("sweepPending = true when a run already happened today, want false")
	}
}

func TestSnapshotSweepCoversAllAssetOwners(t *testing.T) {
	g := openTestDB(t)
	useStubOracle(t, map[string]float64{"BTC": 500})

	alice := createTestUser(t, g, "alice")
	bob := createTestUser(t, g, "bob")
	carol := createTestUser(t, g, "carol") // no assets
	addAsset(t, g, alice.ID, "BTC", models.AssetCrypto, 2, 400)
	addAsset(t, g, bob.ID, "GOLD", models.AssetMutualFund, 5, 1000)

	runSnapshotSweep(context.Background(), g)

	counts := map[uint]int64{}
	for _, id := range []uint{alice.ID, bob.ID, carol.ID} {
		var n int64
		g.Model(&models.PortfolioSnapshot{}).Where("user_id = ?", id).Count(&n)
		counts[id] = n
	}
	if counts[alice.ID] != 1 || counts[bob.ID] != 1 {
		t.Errorf("asset owners got %d/%d snapshots, want 1/1", counts[alice.ID], counts[bob.ID])
	}
	if counts[carol.ID] != 0 {
		t.Errorf("user without assets got %d snapshots, want 0", counts[carol.ID])
	}

	var aliceSnap models.PortfolioSnapshot
	g.Where("user_id = ?", alice.ID).First(&aliceSnap)
	if aliceSnap.Value != 1000 {
		t.Errorf("alice snapshot value = %v, want 1000 (2 x live 500)", aliceSnap.Value)
	}
	var bobSnap models.PortfolioSnapshot
	g.Where("user_id = ?", bob.ID).First(&bobSnap)
	if bobSnap.Value != 5000 {
		t.Errorf("bob snapshot value = %v, want 5000 (buy price, no live quote)", bobSnap.Value)
	}

	if sweepPending(g, time.Now()) {
		t.Error("sweepPending = true after a completed sweep, want false")
	}
}

func TestSnapshotSweepRepeatRunsOnlyAppend(t *testing.T) {
	g := openTestDB(t)
	useStubOracle(t, nil)
	user := createTestUser(t, g, "dupes")
	addAsset(t, g, user.ID, "BTC", models.AssetCrypto, 1, 100)

	runSnapshotSweep(context.Background(), g)
	runSnapshotSweep(context.Background(), g)

	var n int64
	g.Model(&models.PortfolioSnapshot{}).Where("user_id = ?", user.ID).Count(&n)
	if n != 2 {
		t.Errorf("snapshots after two sweeps = %d, want 2 (append-only, duplicates harmless)", n)
	}
	var runs int64
	g.Model(&models.SweepRun{}).Count(&runs)
	if runs != 2 {
		t.Errorf("sweep runs recorded = %d, want 2", runs)
	}
}
