// action/builder.go
package action

import (
	"github.com/google/uuid"

	"github.com/wfunc/catanclient/models"
)

// The builder is a pure state machine: each Select* takes the current game
// projection, the acting seat and the pending action, and returns the next
// pending action. A selection the rules reject returns the previous state
// unchanged; nothing here touches the network.
//
// Refinement rules: a selection matching the pending action's kind fills or
// replaces its fields; a selection belonging to a different kind is ignored
// while something is pending. With nothing pending, the selection starts
// whichever action the current phase and turn permit.

// setupTurns is the number of leading turns in which land/path selection
// always builds the combined settlement+road, regardless of phase.
const setupTurns = 3

// DiscardThreshold is the hand size above which a player must discard.
const DiscardThreshold = 7

// Cancel drops the in-progress action. Idempotent: cancelling with nothing
// pending is a no-op.
func Cancel(models.PendingAction) models.PendingAction {
	return nil
}

// SelectLand handles a click on a board vertex.
func SelectLand(game *models.GameDetail, playerID, landID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active {
		return pending
	}

	if game.Turn < setupTurns {
		switch a := pending.(type) {
		case nil:
			next := models.NewAction(models.KindBuildSettlementAndRoad, game.ID).(models.BuildSettlementAndRoad)
			next.LandID = landID
			return next
		case models.BuildSettlementAndRoad:
			a.LandID = landID
			return a
		default:
			return pending
		}
	}

	if game.Phase != models.PhaseResourceConsumption {
		return pending
	}

	switch a := pending.(type) {
	case nil:
		// A land already holding the player's settlement upgrades it;
		// an empty land starts a new settlement.
		if c := ownSettlementAt(player, landID); c != nil {
			next := models.NewAction(models.KindUpgradeCity, game.ID).(models.UpgradeCity)
			next.ConstructionID = c.ID
			return next
		}
		next := models.NewAction(models.KindBuildSettlement, game.ID).(models.BuildSettlement)
		next.LandID = landID
		return next
	case models.BuildSettlement:
		a.LandID = landID
		return a
	case models.UpgradeCity:
		if c := ownSettlementAt(player, landID); c != nil {
			a.ConstructionID = c.ID
			return a
		}
		return pending
	default:
		return pending
	}
}

// SelectPath handles a click on a board edge.
func SelectPath(game *models.GameDetail, playerID, pathID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active {
		return pending
	}

	if game.Turn < setupTurns {
		switch a := pending.(type) {
		case nil:
			next := models.NewAction(models.KindBuildSettlementAndRoad, game.ID).(models.BuildSettlementAndRoad)
			next.PathID = pathID
			return next
		case models.BuildSettlementAndRoad:
			a.PathID = pathID
			return a
		default:
			return pending
		}
	}

	if game.Phase != models.PhaseResourceConsumption {
		return pending
	}

	switch a := pending.(type) {
	case nil:
		next := models.NewAction(models.KindBuildRoad, game.ID).(models.BuildRoad)
		next.PathID = pathID
		return next
	case models.BuildRoad:
		a.PathID = pathID
		return a
	case models.PlayRoadBuildingCard:
		a.PathIDs = appendCapped(a.PathIDs, pathID, 2)
		return a
	default:
		return pending
	}
}

// SelectTerrain handles a click on a board hex, used to place the robber.
func SelectTerrain(game *models.GameDetail, playerID, terrainID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active {
		return pending
	}

	switch a := pending.(type) {
	case nil:
		if game.Phase != models.PhaseRobbing {
			return pending
		}
		next := models.NewAction(models.KindMoveRobber, game.ID).(models.MoveRobber)
		next.TerrainID = terrainID
		return next
	case models.MoveRobber:
		a.TerrainID = terrainID
		return a
	case models.PlayKnightCard:
		a.TerrainID = terrainID
		return a
	default:
		return pending
	}
}

// SelectPlayer handles a click on an opponent: the steal target of a robber
// move or knight, or the recipient of a trade offer.
func SelectPlayer(game *models.GameDetail, playerID, targetID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active || targetID == playerID {
		return pending
	}

	switch a := pending.(type) {
	case nil:
		if game.Phase != models.PhaseResourceConsumption {
			return pending
		}
		next := models.NewAction(models.KindSendTradeOffer, game.ID).(models.SendTradeOffer)
		next.PlayerID = targetID
		return next
	case models.SendTradeOffer:
		a.PlayerID = targetID
		return a
	case models.MoveRobber:
		a.PlayerID = targetID
		return a
	case models.PlayKnightCard:
		a.PlayerID = targetID
		return a
	default:
		return pending
	}
}

// SelectResourceCard toggles one of the acting player's own cards: the
// discard flow during ResourceDiscard (open to any player over the
// threshold, not just the active one), or the offered side of a maritime
// trade.
func SelectResourceCard(game *models.GameDetail, playerID, cardID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !ownsResourceCard(player, cardID) {
		return pending
	}

	if game.Phase == models.PhaseResourceDiscard {
		if len(player.ResourceCards) <= DiscardThreshold {
			return pending
		}
		switch a := pending.(type) {
		case nil:
			next := models.NewAction(models.KindToggleResourceCards, game.ID).(models.ToggleResourceCards)
			next.ResourceCardIDs = []uuid.UUID{cardID}
			return next
		case models.ToggleResourceCards:
			a.ResourceCardIDs = toggle(a.ResourceCardIDs, cardID)
			return a
		default:
			return pending
		}
	}

	if !player.Active || game.Phase != models.PhaseResourceConsumption {
		return pending
	}
	switch a := pending.(type) {
	case nil:
		next := models.NewAction(models.KindMaritimeTrade, game.ID).(models.MaritimeTrade)
		next.ResourceCardIDs = []uuid.UUID{cardID}
		return next
	case models.MaritimeTrade:
		a.ResourceCardIDs = toggle(a.ResourceCardIDs, cardID)
		return a
	default:
		return pending
	}
}

// SelectResourceType fills the typed side of a pending trade or card play:
// the demanded maritime resource, the two year-of-plenty picks (most recent
// two kept) or the monopolized type.
func SelectResourceType(game *models.GameDetail, playerID uuid.UUID, resource models.ResourceType, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active {
		return pending
	}

	switch a := pending.(type) {
	case models.MaritimeTrade:
		a.Demand = resource
		return a
	case models.PlayYearOfPlentyCard:
		a.ResourceTypes = appendCappedResources(a.ResourceTypes, resource, 2)
		return a
	case models.PlayMonopolyCard:
		a.ResourceType = resource
		return a
	default:
		return pending
	}
}

// SelectDevelopmentCard starts playing one of the acting player's
// development cards; the variant follows the card's type.
func SelectDevelopmentCard(game *models.GameDetail, playerID, cardID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active || game.Phase != models.PhaseResourceConsumption {
		return pending
	}
	card := ownedDevelopmentCard(player, cardID)
	if card == nil {
		return pending
	}

	if pending != nil {
		// Refine only a pending play of the same card type.
		switch a := pending.(type) {
		case models.PlayKnightCard:
			if card.Type == models.CardKnight {
				a.DevelopmentCardID = cardID
				return a
			}
		case models.PlayRoadBuildingCard:
			if card.Type == models.CardRoadBuilding {
				a.DevelopmentCardID = cardID
				return a
			}
		case models.PlayYearOfPlentyCard:
			if card.Type == models.CardYearOfPlenty {
				a.DevelopmentCardID = cardID
				return a
			}
		case models.PlayMonopolyCard:
			if card.Type == models.CardMonopoly {
				a.DevelopmentCardID = cardID
				return a
			}
		}
		return pending
	}

	switch card.Type {
	case models.CardKnight:
		next := models.NewAction(models.KindPlayKnightCard, game.ID).(models.PlayKnightCard)
		next.DevelopmentCardID = cardID
		return next
	case models.CardRoadBuilding:
		next := models.NewAction(models.KindPlayRoadBuildingCard, game.ID).(models.PlayRoadBuildingCard)
		next.DevelopmentCardID = cardID
		return next
	case models.CardYearOfPlenty:
		next := models.NewAction(models.KindPlayYearOfPlentyCard, game.ID).(models.PlayYearOfPlentyCard)
		next.DevelopmentCardID = cardID
		return next
	case models.CardMonopoly:
		next := models.NewAction(models.KindPlayMonopolyCard, game.ID).(models.PlayMonopolyCard)
		next.DevelopmentCardID = cardID
		return next
	}
	// Victory points are never played.
	return pending
}

// SelectDice starts the roll at the top of the turn.
func SelectDice(game *models.GameDetail, playerID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active || game.Phase != models.PhaseResourceProduction {
		return pending
	}
	if pending != nil {
		return pending
	}
	return models.NewAction(models.KindRollDices, game.ID)
}

// StartBuyDevelopmentCard starts the (fieldless) card purchase.
func StartBuyDevelopmentCard(game *models.GameDetail, playerID uuid.UUID, pending models.PendingAction) models.PendingAction {
	player := seat(game, playerID)
	if player == nil || !player.Active || game.Phase != models.PhaseResourceConsumption {
		return pending
	}
	if pending != nil {
		return pending
	}
	return models.NewAction(models.KindBuyDevelopmentCard, game.ID)
}

// --- helpers ---

func seat(game *models.GameDetail, playerID uuid.UUID) *models.Player {
	for i := range game.Players {
		if game.Players[i].ID == playerID {
			return &game.Players[i]
		}
	}
	return nil
}

func ownSettlementAt(player *models.Player, landID uuid.UUID) *models.Construction {
	for i := range player.Constructions {
		c := &player.Constructions[i]
		if c.LandID == landID && c.Type == models.ConstructionSettlement {
			return c
		}
	}
	return nil
}

func ownsResourceCard(player *models.Player, cardID uuid.UUID) bool {
	for i := range player.ResourceCards {
		if player.ResourceCards[i].ID == cardID {
			return true
		}
	}
	return false
}

func ownedDevelopmentCard(player *models.Player, cardID uuid.UUID) *models.DevelopmentCard {
	for i := range player.DevelopmentCards {
		if player.DevelopmentCards[i].ID == cardID {
			return &player.DevelopmentCards[i]
		}
	}
	return nil
}

// appendCapped appends keeping the most recent limit entries.
func appendCapped(ids []uuid.UUID, id uuid.UUID, limit int) []uuid.UUID {
	out := append(append([]uuid.UUID(nil), ids...), id)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func appendCappedResources(types []models.ResourceType, t models.ResourceType, limit int) []models.ResourceType {
	out := append(append([]models.ResourceType(nil), types...), t)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// toggle removes the id if present, appends it otherwise.
func toggle(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids)+1)
	removed := false
	for _, existing := range ids {
		if existing == id {
			removed = true
			continue
		}
		out = append(out, existing)
	}
	if !removed {
		out = append(out, id)
	}
	return out
}
