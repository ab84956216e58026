package ws

import (
	"errors"

	"github.com/mcoot/tapduel/internal/model"
)

// Machine-distinguishable rejection codes carried on error and
// attack_rejected events
const (
	CodeInvalidEvent          = "INVALID_EVENT"
	CodePlayerNotFound        = "PLAYER_NOT_FOUND"
	CodeSelfChallenge         = "SELF_CHALLENGE"
	CodeAlreadyInBattle       = "ALREADY_IN_BATTLE"
	CodeInsufficientResources = "INSUFFICIENT_RESOURCES"
	CodeBattleNotFound        = "BATTLE_NOT_FOUND"
	CodeNotParticipant        = "NOT_PARTICIPANT"
	CodeBattleNotActive       = "BATTLE_NOT_ACTIVE"
	CodeNotYourTurn           = "NOT_YOUR_TURN"
	CodeInternalError         = "INTERNAL_ERROR"
)

// toEventError converts a model error to its wire code and message
func toEventError(err error) (string, string) {
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return CodePlayerNotFound, "Player not found"
	case errors.Is(err, model.ErrSelfChallenge):
		return CodeSelfChallenge, "Cannot challenge yourself"
	case errors.Is(err, model.ErrAlreadyInBattle):
		return CodeAlreadyInBattle, "Player is already in a battle"
	case errors.Is(err, model.ErrInsufficientResources):
		return CodeInsufficientResources, "Not enough resources"
	case errors.Is(err, model.ErrBattleNotFound):
		return CodeBattleNotFound, "Battle not found"
	case errors.Is(err, model.ErrNotParticipant):
		return CodeNotParticipant, "Not a participant in this battle"
	case errors.Is(err, model.ErrBattleNotActive):
		return CodeBattleNotActive, "Battle is not active"
	case errors.Is(err, model.ErrNotYourTurn):
		return CodeNotYourTurn, "Not your turn"
	default:
		return CodeInternalError, "Internal server error"
	}
}
