// api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/wfunc/catanclient/auth"
	"github.com/wfunc/catanclient/models"
	"github.com/wfunc/catanclient/storage"
)

// Client is the typed surface over the game server's HTTP API. Every
// request goes through the authenticated gateway; auth recovery and
// single-flight refresh live there, not here.
type Client struct {
	gateway *auth.Gateway
}

func NewClient(gateway *auth.Gateway) *Client {
	return &Client{gateway: gateway}
}

// GameList is the paged games envelope.
type GameList struct {
	Total int           `json:"total"`
	Data  []models.Game `json:"data"`
}

// --- auth ---

func (c *Client) Register(ctx context.Context, displayName, email, password string) error {
	body := map[string]string{
		"displayName": displayName,
		"email":       email,
		"password":    password,
	}
	return c.post(ctx, "/auth/register", body, nil)
}

// Login exchanges credentials for a token pair and installs it, starting
// the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var payload struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.post(ctx, "/auth/login", body, &payload); err != nil {
		return err
	}
	return c.gateway.Tokens().Set(storage.TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	})
}

// Revoke invalidates the refresh token server-side and clears the stored
// pair. Revoking with no session is a no-op.
func (c *Client) Revoke(ctx context.Context) error {
	pair := c.gateway.Tokens().Current()
	if pair.RefreshToken == "" {
		return nil
	}
	if err := c.post(ctx, "/auth/revoke", map[string]string{"refreshToken": pair.RefreshToken}, nil); err != nil {
		return err
	}
	return c.gateway.Tokens().Clear()
}

// --- games ---

func (c *Client) ListGames(ctx context.Context, limit, offset int) (*GameList, error) {
	var list GameList
	path := fmt.Sprintf("/catan/games?limit=%d&offset=%d", limit, offset)
	if err := c.get(ctx, path, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (c *Client) GetGame(ctx context.Context, id uuid.UUID) (*models.GameDetail, error) {
	var detail models.GameDetail
	if err := c.get(ctx, "/catan/games/"+id.String(), &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *Client) CreateGame(ctx context.Context) (*models.Game, error) {
	var game models.Game
	if err := c.post(ctx, "/catan/games", nil, &game); err != nil {
		return nil, err
	}
	return &game, nil
}

func (c *Client) JoinGame(ctx context.Context, id uuid.UUID) error {
	return c.post(ctx, "/catan/games/"+id.String()+"/join", nil, nil)
}

func (c *Client) StartGame(ctx context.Context, id uuid.UUID) error {
	return c.post(ctx, "/catan/games/"+id.String()+"/start", nil, nil)
}

// --- game actions, one endpoint per pending-action kind ---

func (c *Client) action(ctx context.Context, gameID uuid.UUID, name string, body interface{}) error {
	return c.post(ctx, "/catan/games/"+gameID.String()+"/"+name, body, nil)
}

func (c *Client) BuildSettlementAndRoad(ctx context.Context, gameID, landID, pathID uuid.UUID) error {
	return c.action(ctx, gameID, "build-settlement-and-road", map[string]string{
		"landID": landID.String(),
		"pathID": pathID.String(),
	})
}

func (c *Client) BuildSettlement(ctx context.Context, gameID, landID uuid.UUID) error {
	return c.action(ctx, gameID, "build-settlement", map[string]string{"landID": landID.String()})
}

func (c *Client) BuildRoad(ctx context.Context, gameID, pathID uuid.UUID) error {
	return c.action(ctx, gameID, "build-road", map[string]string{"pathID": pathID.String()})
}

func (c *Client) UpgradeCity(ctx context.Context, gameID, constructionID uuid.UUID) error {
	return c.action(ctx, gameID, "upgrade-city", map[string]string{"constructionID": constructionID.String()})
}

func (c *Client) BuyDevelopmentCard(ctx context.Context, gameID uuid.UUID) error {
	return c.action(ctx, gameID, "buy-development-card", nil)
}

func (c *Client) ToggleResourceCards(ctx context.Context, gameID uuid.UUID, cardIDs []uuid.UUID) error {
	return c.action(ctx, gameID, "toggle-resource-cards", map[string]interface{}{
		"resourceCardIDs": uuidStrings(cardIDs),
	})
}

func (c *Client) MaritimeTrade(ctx context.Context, gameID uuid.UUID, cardIDs []uuid.UUID, demand models.ResourceType) error {
	return c.action(ctx, gameID, "maritime-trade", map[string]interface{}{
		"resourceCardIDs":       uuidStrings(cardIDs),
		"demandingResourceType": demand,
	})
}

func (c *Client) SendTradeOffer(ctx context.Context, gameID, playerID uuid.UUID) error {
	return c.action(ctx, gameID, "send-trade-offer", map[string]string{"playerID": playerID.String()})
}

func (c *Client) MoveRobber(ctx context.Context, gameID, terrainID, playerID uuid.UUID) error {
	body := map[string]string{"terrainID": terrainID.String()}
	if playerID != uuid.Nil {
		body["playerID"] = playerID.String()
	}
	return c.action(ctx, gameID, "move-robber", body)
}

func (c *Client) PlayKnightCard(ctx context.Context, gameID, cardID, terrainID, playerID uuid.UUID) error {
	body := map[string]string{
		"developmentCardID": cardID.String(),
		"terrainID":         terrainID.String(),
	}
	if playerID != uuid.Nil {
		body["playerID"] = playerID.String()
	}
	return c.action(ctx, gameID, "play-knight-card", body)
}

func (c *Client) PlayRoadBuildingCard(ctx context.Context, gameID, cardID uuid.UUID, pathIDs []uuid.UUID) error {
	return c.action(ctx, gameID, "play-road-building-card", map[string]interface{}{
		"developmentCardID": cardID.String(),
		"pathIDs":           uuidStrings(pathIDs),
	})
}

func (c *Client) PlayYearOfPlentyCard(ctx context.Context, gameID, cardID uuid.UUID, resources []models.ResourceType) error {
	return c.action(ctx, gameID, "play-year-of-plenty-card", map[string]interface{}{
		"developmentCardID": cardID.String(),
		"resourceTypes":     resources,
	})
}

func (c *Client) PlayMonopolyCard(ctx context.Context, gameID, cardID uuid.UUID, resource models.ResourceType) error {
	return c.action(ctx, gameID, "play-monopoly-card", map[string]interface{}{
		"developmentCardID": cardID.String(),
		"resourceType":      resource,
	})
}

func (c *Client) RollDices(ctx context.Context, gameID uuid.UUID) error {
	return c.action(ctx, gameID, "roll-dices", nil)
}

// --- users ---

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/user/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "/user/"+id.String(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- chat ---

func (c *Client) ListMessages(ctx context.Context, roomID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	path := "/chat/messages?roomID=" + url.QueryEscape(roomID.String())
	if err := c.get(ctx, path, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, roomID uuid.UUID, detail string) error {
	return c.post(ctx, "/chat/messages", map[string]string{
		"roomID": roomID.String(),
		"detail": detail,
	}, nil)
}

// --- plumbing ---

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.gateway.BaseURL()+path, nil)
	if err != nil {
		return err
	}
	return c.roundTrip(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gateway.BaseURL()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.roundTrip(req, out)
}

func (c *Client) roundTrip(req *http.Request, out interface{}) error {
	resp, err := c.gateway.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		// A missing or unstructured body still yields a usable error.
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
