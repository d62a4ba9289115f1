// action/submitter.go
package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wfunc/catanclient/models"
)

var (
	ErrNoPendingAction  = errors.New("no pending action to confirm")
	ErrIncompleteAction = errors.New("pending action is incomplete")
)

// GameAPI is the slice of the HTTP client the submitter needs: one mutation
// per action kind. *api.Client satisfies it.
type GameAPI interface {
	BuildSettlementAndRoad(ctx context.Context, gameID, landID, pathID uuid.UUID) error
	BuildSettlement(ctx context.Context, gameID, landID uuid.UUID) error
	BuildRoad(ctx context.Context, gameID, pathID uuid.UUID) error
	UpgradeCity(ctx context.Context, gameID, constructionID uuid.UUID) error
	BuyDevelopmentCard(ctx context.Context, gameID uuid.UUID) error
	ToggleResourceCards(ctx context.Context, gameID uuid.UUID, cardIDs []uuid.UUID) error
	MaritimeTrade(ctx context.Context, gameID uuid.UUID, cardIDs []uuid.UUID, demand models.ResourceType) error
	SendTradeOffer(ctx context.Context, gameID, playerID uuid.UUID) error
	MoveRobber(ctx context.Context, gameID, terrainID, playerID uuid.UUID) error
	PlayKnightCard(ctx context.Context, gameID, cardID, terrainID, playerID uuid.UUID) error
	PlayRoadBuildingCard(ctx context.Context, gameID, cardID uuid.UUID, pathIDs []uuid.UUID) error
	PlayYearOfPlentyCard(ctx context.Context, gameID, cardID uuid.UUID, resources []models.ResourceType) error
	PlayMonopolyCard(ctx context.Context, gameID, cardID uuid.UUID, resource models.ResourceType) error
	RollDices(ctx context.Context, gameID uuid.UUID) error
}

// Submitter maps a completed pending action onto the one matching server
// mutation. It never predicts board effects locally; the authoritative
// state arrives through tag invalidation and refetch.
type Submitter struct {
	api GameAPI
}

func NewSubmitter(api GameAPI) *Submitter {
	return &Submitter{api: api}
}

// Confirm validates completeness before any network call, then dispatches
// exactly one mutation. On error the caller keeps the pending action so the
// user can retry or cancel explicitly; on success the caller clears it.
func (s *Submitter) Confirm(ctx context.Context, pending models.PendingAction) error {
	if pending == nil {
		return ErrNoPendingAction
	}
	if !pending.Complete() {
		return fmt.Errorf("%w: %s", ErrIncompleteAction, pending.Kind())
	}

	switch a := pending.(type) {
	case models.BuildSettlementAndRoad:
		return s.api.BuildSettlementAndRoad(ctx, a.GameID(), a.LandID, a.PathID)
	case models.BuildSettlement:
		return s.api.BuildSettlement(ctx, a.GameID(), a.LandID)
	case models.BuildRoad:
		return s.api.BuildRoad(ctx, a.GameID(), a.PathID)
	case models.UpgradeCity:
		return s.api.UpgradeCity(ctx, a.GameID(), a.ConstructionID)
	case models.BuyDevelopmentCard:
		return s.api.BuyDevelopmentCard(ctx, a.GameID())
	case models.ToggleResourceCards:
		return s.api.ToggleResourceCards(ctx, a.GameID(), a.ResourceCardIDs)
	case models.MaritimeTrade:
		return s.api.MaritimeTrade(ctx, a.GameID(), a.ResourceCardIDs, a.Demand)
	case models.SendTradeOffer:
		return s.api.SendTradeOffer(ctx, a.GameID(), a.PlayerID)
	case models.MoveRobber:
		return s.api.MoveRobber(ctx, a.GameID(), a.TerrainID, a.PlayerID)
	case models.PlayKnightCard:
		return s.api.PlayKnightCard(ctx, a.GameID(), a.DevelopmentCardID, a.TerrainID, a.PlayerID)
	case models.PlayRoadBuildingCard:
		return s.api.PlayRoadBuildingCard(ctx, a.GameID(), a.DevelopmentCardID, a.PathIDs)
	case models.PlayYearOfPlentyCard:
		return s.api.PlayYearOfPlentyCard(ctx, a.GameID(), a.DevelopmentCardID, a.ResourceTypes)
	case models.PlayMonopolyCard:
		return s.api.PlayMonopolyCard(ctx, a.GameID(), a.DevelopmentCardID, a.ResourceType)
	case models.RollDices:
		return s.api.RollDices(ctx, a.GameID())
	}
	return fmt.Errorf("unknown pending action kind %q", pending.Kind())
}
