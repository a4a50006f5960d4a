// Package config loads the tunables every Game is created with (spec §6)
// from the environment, the way the teacher's main.go loads DATABASE_URL
// and PORT via os.Getenv after an optional godotenv.Load.
package config

import (
	"os"
	"strconv"
	"time"
)

// Tunables holds the per-game knobs listed in spec §6. They are injected
// at game creation time so a single process can run games with different
// settings (e.g. a faster rate limit for a practice room).
type Tunables struct {
	RequiredConsecutive         int
	MinMoveInterval             time.Duration
	PauseMax                    time.Duration
	HomeZoneDegradationInterval time.Duration
	HomeZoneDistance            int
	PawnPromotionDistance       int
	PromotionPiece              string
	MaxPlayersPerGame           int
}

// Default returns the tunables spec §6 lists as defaults.
func Default() Tunables {
	return Tunables{
		RequiredConsecutive:         8,
		MinMoveInterval:             10 * time.Second,
		PauseMax:                    15 * time.Minute,
		HomeZoneDegradationInterval: 5 * time.Minute,
		HomeZoneDistance:            16,
		PawnPromotionDistance:       8,
		PromotionPiece:              "KNIGHT",
		MaxPlayersPerGame:           2048,
	}
}

// FromEnv overlays environment variables on top of Default(), mirroring
// the teacher's pattern of os.Getenv with a fallback default for every
// tunable ("port := os.Getenv(\"PORT\"); if port == \"\" { port = \"8080\" }").
func FromEnv() Tunables {
	t := Default()
	if v := os.Getenv("REQUIRED_CONSECUTIVE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.RequiredConsecutive = n
		}
	}
	if v := os.Getenv("MIN_MOVE_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.MinMoveInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("PAUSE_MAX_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.PauseMax = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("HOME_ZONE_DEGRADATION_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.HomeZoneDegradationInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("HOME_ZONE_DISTANCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.HomeZoneDistance = n
		}
	}
	if v := os.Getenv("PAWN_PROMOTION_DISTANCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.PawnPromotionDistance = n
		}
	}
	if v := os.Getenv("PROMOTION_PIECE"); v != "" {
		t.PromotionPiece = v
	}
	if v := os.Getenv("MAX_PLAYERS_PER_GAME"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			t.MaxPlayersPerGame = n
		}
	}
	return t
}
