// Package service implements the game rules on top of the stores.
package service

import "errors"

// Domain errors.
var (
	ErrQuestGeneration  = errors.New("failed to generate daily quests")
	ErrInvalidHabit     = errors.New("invalid habit")
	ErrAlreadyCheckedIn = errors.New("habit already completed today")
	ErrInvalidDuration  = errors.New("invalid dungeon duration")
	ErrProfileNotFound  = errors.New("profile not found")
)
