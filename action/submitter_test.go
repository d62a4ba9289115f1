package action

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/catanclient/models"
)

// countingAPI records how many mutations reach the network layer.
type countingAPI struct {
	calls map[models.ActionKind]int
	err   error
}

func newCountingAPI() *countingAPI {
	return &countingAPI{calls: map[models.ActionKind]int{}}
}

func (c *countingAPI) total() int {
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func (c *countingAPI) record(kind models.ActionKind) error {
	c.calls[kind]++
	return c.err
}

func (c *countingAPI) BuildSettlementAndRoad(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return c.record(models.KindBuildSettlementAndRoad)
}
func (c *countingAPI) BuildSettlement(context.Context, uuid.UUID, uuid.UUID) error {
	return c.record(models.KindBuildSettlement)
}
func (c *countingAPI) BuildRoad(context.Context, uuid.UUID, uuid.UUID) error {
	return c.record(models.KindBuildRoad)
}
func (c *countingAPI) UpgradeCity(context.Context, uuid.UUID, uuid.UUID) error {
	return c.record(models.KindUpgradeCity)
}
func (c *countingAPI) BuyDevelopmentCard(context.Context, uuid.UUID) error {
	return c.record(models.KindBuyDevelopmentCard)
}
func (c *countingAPI) ToggleResourceCards(context.Context, uuid.UUID, []uuid.UUID) error {
	return c.record(models.KindToggleResourceCards)
}
func (c *countingAPI) MaritimeTrade(context.Context, uuid.UUID, []uuid.UUID, models.ResourceType) error {
	return c.record(models.KindMaritimeTrade)
}
func (c *countingAPI) SendTradeOffer(context.Context, uuid.UUID, uuid.UUID) error {
	return c.record(models.KindSendTradeOffer)
}
func (c *countingAPI) MoveRobber(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return c.record(models.KindMoveRobber)
}
func (c *countingAPI) PlayKnightCard(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return c.record(models.KindPlayKnightCard)
}
func (c *countingAPI) PlayRoadBuildingCard(context.Context, uuid.UUID, uuid.UUID, []uuid.UUID) error {
	return c.record(models.KindPlayRoadBuildingCard)
}
func (c *countingAPI) PlayYearOfPlentyCard(context.Context, uuid.UUID, uuid.UUID, []models.ResourceType) error {
	return c.record(models.KindPlayYearOfPlentyCard)
}
func (c *countingAPI) PlayMonopolyCard(context.Context, uuid.UUID, uuid.UUID, models.ResourceType) error {
	return c.record(models.KindPlayMonopolyCard)
}
func (c *countingAPI) RollDices(context.Context, uuid.UUID) error {
	return c.record(models.KindRollDices)
}

// allKinds enumerates every pending-action kind once.
var allKinds = []models.ActionKind{
	models.KindBuildSettlementAndRoad,
	models.KindBuildSettlement,
	models.KindBuildRoad,
	models.KindUpgradeCity,
	models.KindBuyDevelopmentCard,
	models.KindToggleResourceCards,
	models.KindMaritimeTrade,
	models.KindSendTradeOffer,
	models.KindMoveRobber,
	models.KindPlayKnightCard,
	models.KindPlayRoadBuildingCard,
	models.KindPlayYearOfPlentyCard,
	models.KindPlayMonopolyCard,
	models.KindRollDices,
}

// completeAction builds a submittable instance of the kind.
func completeAction(kind models.ActionKind, gameID uuid.UUID) models.PendingAction {
	switch a := models.NewAction(kind, gameID).(type) {
	case models.BuildSettlementAndRoad:
		a.LandID = uuid.New()
		a.PathID = uuid.New()
		return a
	case models.BuildSettlement:
		a.LandID = uuid.New()
		return a
	case models.BuildRoad:
		a.PathID = uuid.New()
		return a
	case models.UpgradeCity:
		a.ConstructionID = uuid.New()
		return a
	case models.BuyDevelopmentCard:
		return a
	case models.ToggleResourceCards:
		a.ResourceCardIDs = []uuid.UUID{uuid.New(), uuid.New()}
		return a
	case models.MaritimeTrade:
		a.ResourceCardIDs = []uuid.UUID{uuid.New()}
		a.Demand = models.ResourceOre
		return a
	case models.SendTradeOffer:
		a.PlayerID = uuid.New()
		return a
	case models.MoveRobber:
		a.TerrainID = uuid.New()
		return a
	case models.PlayKnightCard:
		a.DevelopmentCardID = uuid.New()
		a.TerrainID = uuid.New()
		return a
	case models.PlayRoadBuildingCard:
		a.DevelopmentCardID = uuid.New()
		a.PathIDs = []uuid.UUID{uuid.New(), uuid.New()}
		return a
	case models.PlayYearOfPlentyCard:
		a.DevelopmentCardID = uuid.New()
		a.ResourceTypes = []models.ResourceType{models.ResourceWool, models.ResourceGrain}
		return a
	case models.PlayMonopolyCard:
		a.DevelopmentCardID = uuid.New()
		a.ResourceType = models.ResourceBrick
		return a
	case models.RollDices:
		return a
	}
	return nil
}

func TestConfirmRejectsIncompleteBeforeNetwork(t *testing.T) {
	gameID := uuid.New()
	for _, kind := range allKinds {
		empty := models.NewAction(kind, gameID)
		if empty.Complete() {
			// BuyDevelopmentCard and RollDices carry no extra fields;
			// their empty form is already submittable.
			continue
		}

		t.Run(string(kind), func(t *testing.T) {
			api := newCountingAPI()
			submitter := NewSubmitter(api)

			err := submitter.Confirm(context.Background(), empty)
			require.ErrorIs(t, err, ErrIncompleteAction)
			assert.Zero(t, api.total(), "incomplete action must be rejected before any network call")
		})
	}
}

func TestConfirmDispatchesExactlyOneMutationPerKind(t *testing.T) {
	gameID := uuid.New()
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			api := newCountingAPI()
			submitter := NewSubmitter(api)

			pending := completeAction(kind, gameID)
			require.NotNil(t, pending)
			require.True(t, pending.Complete())

			require.NoError(t, submitter.Confirm(context.Background(), pending))
			assert.Equal(t, 1, api.calls[kind])
			assert.Equal(t, 1, api.total())
		})
	}
}

func TestConfirmNilPending(t *testing.T) {
	submitter := NewSubmitter(newCountingAPI())
	err := submitter.Confirm(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPendingAction)
}

func TestConfirmPropagatesServerRejection(t *testing.T) {
	api := newCountingAPI()
	api.err = errors.New("insufficient resources")
	submitter := NewSubmitter(api)

	pending := completeAction(models.KindBuildRoad, uuid.New())
	err := submitter.Confirm(context.Background(), pending)
	assert.EqualError(t, err, "insufficient resources")
	// The caller keeps the pending action on failure; nothing here
	// mutates it.
	assert.True(t, pending.Complete())
}
