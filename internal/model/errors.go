package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound = errors.New("player not found")

	// Challenge/battle precondition errors
	ErrSelfChallenge         = errors.New("cannot challenge yourself")
	ErrAlreadyInBattle       = errors.New("player is already in a battle")
	ErrInsufficientResources = errors.New("insufficient resources")

	// Battle errors
	ErrBattleNotFound  = errors.New("battle not found")
	ErrNotParticipant  = errors.New("player is not a battle participant")
	ErrBattleNotActive = errors.New("battle is not active")
	ErrNotYourTurn     = errors.New("not this player's turn")

	// Storage errors
	ErrProfileNotFound = errors.New("profile not found")
)
