// models/actions.go
package models

import (
	"github.com/google/uuid"
)

// ActionKind tags the pending-action union.
type ActionKind string

const (
	KindBuildSettlementAndRoad ActionKind = "build_settlement_and_road"
	KindBuildSettlement        ActionKind = "build_settlement"
	KindBuildRoad              ActionKind = "build_road"
	KindUpgradeCity            ActionKind = "upgrade_city"
	KindBuyDevelopmentCard     ActionKind = "buy_development_card"
	KindToggleResourceCards    ActionKind = "toggle_resource_cards"
	KindMaritimeTrade          ActionKind = "maritime_trade"
	KindSendTradeOffer         ActionKind = "send_trade_offer"
	KindMoveRobber             ActionKind = "move_robber"
	KindPlayKnightCard         ActionKind = "play_knight_card"
	KindPlayRoadBuildingCard   ActionKind = "play_road_building_card"
	KindPlayYearOfPlentyCard   ActionKind = "play_year_of_plenty_card"
	KindPlayMonopolyCard       ActionKind = "play_monopoly_card"
	KindRollDices              ActionKind = "roll_dices"
)

// PendingAction is the client-local, ephemeral record of an in-progress
// move. Variants are plain data records filled incrementally by the action
// builder; uuid.Nil marks a field not selected yet. A pending action may be
// submitted only once Complete reports true.
type PendingAction interface {
	Kind() ActionKind
	GameID() uuid.UUID
	Complete() bool

	pendingAction()
}

// actionBase carries the one field every variant shares.
type actionBase struct {
	Game uuid.UUID
}

func (a actionBase) GameID() uuid.UUID { return a.Game }
func (a actionBase) pendingAction()    {}

type BuildSettlementAndRoad struct {
	actionBase
	LandID uuid.UUID
	PathID uuid.UUID
}

func (a BuildSettlementAndRoad) Kind() ActionKind { return KindBuildSettlementAndRoad }
func (a BuildSettlementAndRoad) Complete() bool {
	return a.LandID != uuid.Nil && a.PathID != uuid.Nil
}

type BuildSettlement struct {
	actionBase
	LandID uuid.UUID
}

func (a BuildSettlement) Kind() ActionKind { return KindBuildSettlement }
func (a BuildSettlement) Complete() bool   { return a.LandID != uuid.Nil }

type BuildRoad struct {
	actionBase
	PathID uuid.UUID
}

func (a BuildRoad) Kind() ActionKind { return KindBuildRoad }
func (a BuildRoad) Complete() bool   { return a.PathID != uuid.Nil }

type UpgradeCity struct {
	actionBase
	ConstructionID uuid.UUID
}

func (a UpgradeCity) Kind() ActionKind { return KindUpgradeCity }
func (a UpgradeCity) Complete() bool   { return a.ConstructionID != uuid.Nil }

type BuyDevelopmentCard struct {
	actionBase
}

func (a BuyDevelopmentCard) Kind() ActionKind { return KindBuyDevelopmentCard }
func (a BuyDevelopmentCard) Complete() bool   { return a.Game != uuid.Nil }

type ToggleResourceCards struct {
	actionBase
	ResourceCardIDs []uuid.UUID
}

func (a ToggleResourceCards) Kind() ActionKind { return KindToggleResourceCards }
func (a ToggleResourceCards) Complete() bool   { return len(a.ResourceCardIDs) > 0 }

type MaritimeTrade struct {
	actionBase
	ResourceCardIDs []uuid.UUID
	Demand          ResourceType
}

func (a MaritimeTrade) Kind() ActionKind { return KindMaritimeTrade }
func (a MaritimeTrade) Complete() bool {
	return len(a.ResourceCardIDs) > 0 && a.Demand != ""
}

type SendTradeOffer struct {
	actionBase
	PlayerID uuid.UUID
}

func (a SendTradeOffer) Kind() ActionKind { return KindSendTradeOffer }
func (a SendTradeOffer) Complete() bool   { return a.PlayerID != uuid.Nil }

type MoveRobber struct {
	actionBase
	TerrainID uuid.UUID
	// PlayerID is the steal target; optional when no opponent borders the
	// chosen terrain.
	PlayerID uuid.UUID
}

func (a MoveRobber) Kind() ActionKind { return KindMoveRobber }
func (a MoveRobber) Complete() bool   { return a.TerrainID != uuid.Nil }

type PlayKnightCard struct {
	actionBase
	DevelopmentCardID uuid.UUID
	TerrainID         uuid.UUID
	PlayerID          uuid.UUID
}

func (a PlayKnightCard) Kind() ActionKind { return KindPlayKnightCard }
func (a PlayKnightCard) Complete() bool {
	return a.DevelopmentCardID != uuid.Nil && a.TerrainID != uuid.Nil
}

type PlayRoadBuildingCard struct {
	actionBase
	DevelopmentCardID uuid.UUID
	// PathIDs holds the two free roads, most recent two selections kept.
	PathIDs []uuid.UUID
}

func (a PlayRoadBuildingCard) Kind() ActionKind { return KindPlayRoadBuildingCard }
func (a PlayRoadBuildingCard) Complete() bool {
	return a.DevelopmentCardID != uuid.Nil && len(a.PathIDs) == 2
}

type PlayYearOfPlentyCard struct {
	actionBase
	DevelopmentCardID uuid.UUID
	ResourceTypes     []ResourceType
}

func (a PlayYearOfPlentyCard) Kind() ActionKind { return KindPlayYearOfPlentyCard }
func (a PlayYearOfPlentyCard) Complete() bool {
	return a.DevelopmentCardID != uuid.Nil && len(a.ResourceTypes) == 2
}

type PlayMonopolyCard struct {
	actionBase
	DevelopmentCardID uuid.UUID
	ResourceType      ResourceType
}

func (a PlayMonopolyCard) Kind() ActionKind { return KindPlayMonopolyCard }
func (a PlayMonopolyCard) Complete() bool {
	return a.DevelopmentCardID != uuid.Nil && a.ResourceType != ""
}

type RollDices struct {
	actionBase
}

func (a RollDices) Kind() ActionKind { return KindRollDices }
func (a RollDices) Complete() bool   { return a.Game != uuid.Nil }

// NewAction builds the empty variant for a kind, bound to a game. Used by
// the builder's starter operations.
func NewAction(kind ActionKind, gameID uuid.UUID) PendingAction {
	base := actionBase{Game: gameID}
	switch kind {
	case KindBuildSettlementAndRoad:
		return BuildSettlementAndRoad{actionBase: base}
	case KindBuildSettlement:
		return BuildSettlement{actionBase: base}
	case KindBuildRoad:
		return BuildRoad{actionBase: base}
	case KindUpgradeCity:
		return UpgradeCity{actionBase: base}
	case KindBuyDevelopmentCard:
		return BuyDevelopmentCard{actionBase: base}
	case KindToggleResourceCards:
		return ToggleResourceCards{actionBase: base}
	case KindMaritimeTrade:
		return MaritimeTrade{actionBase: base}
	case KindSendTradeOffer:
		return SendTradeOffer{actionBase: base}
	case KindMoveRobber:
		return MoveRobber{actionBase: base}
	case KindPlayKnightCard:
		return PlayKnightCard{actionBase: base}
	case KindPlayRoadBuildingCard:
		return PlayRoadBuildingCard{actionBase: base}
	case KindPlayYearOfPlentyCard:
		return PlayYearOfPlentyCard{actionBase: base}
	case KindPlayMonopolyCard:
		return PlayMonopolyCard{actionBase: base}
	case KindRollDices:
		return RollDices{actionBase: base}
	}
	return nil
}
