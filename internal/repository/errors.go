// Package repository provides PostgreSQL implementations of the game stores.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors for repository operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile already exists")
	ErrHabitNotFound   = errors.New("habit not found")
	ErrCheckinNotFound = errors.New("checkin not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrQuestNotFound   = errors.New("daily quest not found")
	ErrSlotOccupied    = errors.New("another item is already equipped in this slot")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
