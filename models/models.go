// models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GameStatus is the server-side lifecycle of a game.
type GameStatus string

const (
	GameWaiting  GameStatus = "waiting"
	GameStarted  GameStatus = "started"
	GameFinished GameStatus = "finished"
)

// GamePhase is the phase within a started game's turn cycle.
type GamePhase string

const (
	PhaseSetup               GamePhase = "setup"
	PhaseResourceProduction  GamePhase = "resource_production"
	PhaseResourceDiscard     GamePhase = "resource_discard"
	PhaseRobbing             GamePhase = "robbing"
	PhaseResourceConsumption GamePhase = "resource_consumption"
)

// PlayerColor is one of the four seat colors.
type PlayerColor string

const (
	ColorRed    PlayerColor = "red"
	ColorBlue   PlayerColor = "blue"
	ColorGreen  PlayerColor = "green"
	ColorYellow PlayerColor = "yellow"
)

// ResourceType identifies a resource card or terrain yield.
type ResourceType string

const (
	ResourceLumber ResourceType = "lumber"
	ResourceBrick  ResourceType = "brick"
	ResourceWool   ResourceType = "wool"
	ResourceGrain  ResourceType = "grain"
	ResourceOre    ResourceType = "ore"
)

// Game is the read-only client projection of a server-owned game. The
// client never mutates it; it refetches after tag invalidation.
type Game struct {
	ID             uuid.UUID  `json:"id"`
	Status         GameStatus `json:"status"`
	Phase          GamePhase  `json:"phase"`
	Turn           int        `json:"turn"`
	ActivePlayerID uuid.UUID  `json:"activePlayerID"`
	Players        []Player   `json:"players"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// GameDetail carries the full board on top of the list projection.
type GameDetail struct {
	Game
	Terrains            []Terrain            `json:"terrains"`
	Lands               []Land               `json:"lands"`
	Paths               []Path               `json:"paths"`
	Harbors             []Harbor             `json:"harbors"`
	Dices               []Dice               `json:"dices"`
	DevelopmentCardDeck int                  `json:"developmentCardDeck"`
	ResourceCardPool    map[ResourceType]int `json:"resourceCardPool"`
	Achievements        []Achievement        `json:"achievements"`
}

type Player struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             uuid.UUID         `json:"userID"`
	Color              PlayerColor       `json:"color"`
	TurnOrder          int               `json:"turnOrder"`
	Score              int               `json:"score"`
	Active             bool              `json:"active"`
	ReceivedTradeOffer bool              `json:"receivedTradeOffer"`
	ResourceCards      []ResourceCard    `json:"resourceCards"`
	DevelopmentCards   []DevelopmentCard `json:"developmentCards"`
	Constructions      []Construction    `json:"constructions"`
	Roads              []Road            `json:"roads"`
}

type Terrain struct {
	ID     uuid.UUID    `json:"id"`
	Q      int          `json:"q"`
	R      int          `json:"r"`
	Number int          `json:"number"`
	Type   ResourceType `json:"type"`
	Robber bool         `json:"robber"`
}

type Land struct {
	ID       uuid.UUID `json:"id"`
	Q        int       `json:"q"`
	R        int       `json:"r"`
	Location string    `json:"location"`
}

type Path struct {
	ID       uuid.UUID `json:"id"`
	Q        int       `json:"q"`
	R        int       `json:"r"`
	Location string    `json:"location"`
}

type Harbor struct {
	ID   uuid.UUID    `json:"id"`
	Q    int          `json:"q"`
	R    int          `json:"r"`
	Type ResourceType `json:"type"`
}

type Dice struct {
	ID     uuid.UUID `json:"id"`
	Number int       `json:"number"`
}

type ResourceCard struct {
	ID       uuid.UUID    `json:"id"`
	Type     ResourceType `json:"type"`
	Offering bool         `json:"offering"`
	Selected bool         `json:"selected"`
}

type DevelopmentCardType string

const (
	CardKnight       DevelopmentCardType = "knight"
	CardRoadBuilding DevelopmentCardType = "road_building"
	CardYearOfPlenty DevelopmentCardType = "year_of_plenty"
	CardMonopoly     DevelopmentCardType = "monopoly"
	CardVictoryPoint DevelopmentCardType = "victory_point"
)

type DevelopmentCard struct {
	ID     uuid.UUID           `json:"id"`
	Type   DevelopmentCardType `json:"type"`
	Status string              `json:"status"`
}

type ConstructionType string

const (
	ConstructionSettlement ConstructionType = "settlement"
	ConstructionCity       ConstructionType = "city"
)

type Construction struct {
	ID     uuid.UUID        `json:"id"`
	Type   ConstructionType `json:"type"`
	LandID uuid.UUID        `json:"landID"`
}

type Road struct {
	ID     uuid.UUID `json:"id"`
	PathID uuid.UUID `json:"pathID"`
}

type Achievement struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	PlayerID uuid.UUID `json:"playerID"`
}

type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
}

type Message struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"roomID"`
	UserID    uuid.UUID `json:"userID"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// ActivePlayer returns the player whose turn it is, or nil before start.
func (g *Game) ActivePlayer() *Player {
	for i := range g.Players {
		if g.Players[i].ID == g.ActivePlayerID {
			return &g.Players[i]
		}
	}
	return nil
}

// PlayerByUser returns the seat owned by the given user, or nil.
func (g *Game) PlayerByUser(userID uuid.UUID) *Player {
	for i := range g.Players {
		if g.Players[i].UserID == userID {
			return &g.Players[i]
		}
	}
	return nil
}
