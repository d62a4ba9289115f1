// client/client.go
package client

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/wfunc/catanclient/action"
	"github.com/wfunc/catanclient/api"
	"github.com/wfunc/catanclient/auth"
	"github.com/wfunc/catanclient/cache"
	"github.com/wfunc/catanclient/config"
	"github.com/wfunc/catanclient/events"
	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/models"
	"github.com/wfunc/catanclient/monitor"
	"github.com/wfunc/catanclient/network"
	"github.com/wfunc/catanclient/notify"
	"github.com/wfunc/catanclient/session"
	"github.com/wfunc/catanclient/storage"
	"github.com/wfunc/catanclient/timer"
)

// Client wires the synchronization core together: storage, authenticated
// gateway, typed API, query cache, realtime session and the pending-action
// surface. The rendering layer talks only to this facade.
type Client struct {
	cfg           *config.Config
	store         storage.Store
	gateway       *auth.Gateway
	api           *api.Client
	cache         *cache.Store
	dispatcher    *events.Dispatcher
	session       *session.Session
	timers        *timer.Manager
	notifications *notify.Queue
	monitor       *monitor.Monitor
	submitter     *action.Submitter

	mutex   sync.Mutex
	pending models.PendingAction
	// pendingSeq bumps on every pending mutation; a confirm clears only
	// the snapshot it submitted, never a selection made while in flight.
	pendingSeq uint64
	game       *models.GameDetail
	me         *models.User
}

func New(cfg *config.Config) (*Client, error) {
	store, err := storage.NewGormSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenStore(store)
	if err != nil {
		store.Close()
		return nil, err
	}

	var mon *monitor.Monitor
	if cfg.Monitor.Address != "" {
		mon = monitor.NewMonitor("catanclient")
		mon.StartServer(cfg.Monitor.Address)
	}

	gateway := auth.NewGateway(cfg.Server.BaseURL, cfg.Server.Timeout, tokens, mon)
	apiClient := api.NewClient(gateway)

	cacheStore := cache.NewStore()
	dispatcher := events.NewDispatcher()
	events.BindCache(dispatcher, cacheStore)

	sess := session.NewSession(session.Config{
		URL:               cfg.Realtime.URL,
		Namespace:         cfg.Realtime.Namespace,
		ReconnectInterval: cfg.Realtime.ReconnectInterval,
		PingInterval:      cfg.Realtime.PingInterval,
	}, network.WSDialer{}, func() string {
		return tokens.Current().AccessToken
	}, dispatcher, mon)

	timers := timer.NewManager()

	c := &Client{
		cfg:           cfg,
		store:         store,
		gateway:       gateway,
		api:           apiClient,
		cache:         cacheStore,
		dispatcher:    dispatcher,
		session:       sess,
		timers:        timers,
		notifications: notify.NewQueue(cfg.Notify.TTL, timers),
		monitor:       mon,
		submitter:     action.NewSubmitter(apiClient),
	}

	// An invalidated game tag means the server pushed a change to the game
	// we are viewing; refetch the authoritative state.
	cacheStore.Subscribe(c.onInvalidate)

	return c, nil
}

// Start opens the realtime connection; it keeps itself alive until Close.
func (c *Client) Start(ctx context.Context) error {
	return c.session.Connect(ctx)
}

// Close tears the client down without ending the server-side session; use
// Logout for that.
func (c *Client) Close() error {
	c.session.Close()
	c.timers.Stop()
	logger.Sync()
	return c.store.Close()
}

// --- authentication ---

func (c *Client) Register(ctx context.Context, displayName, email, password string) error {
	return c.surface(c.api.Register(ctx, displayName, email, password))
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	if err := c.api.Login(ctx, email, password); err != nil {
		return c.surface(err)
	}
	me, err := c.api.Me(ctx)
	if err != nil {
		return c.surface(err)
	}
	c.mutex.Lock()
	c.me = me
	c.mutex.Unlock()
	return nil
}

// Logout revokes the refresh token and drops local session state.
func (c *Client) Logout(ctx context.Context) error {
	err := c.api.Revoke(ctx)
	c.mutex.Lock()
	c.me = nil
	c.game = nil
	c.pending = nil
	c.pendingSeq++
	c.mutex.Unlock()
	c.session.Close()
	return err
}

// Me returns the authenticated user, nil when logged out.
func (c *Client) Me() *models.User {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.me
}

// --- game browsing ---

// cachedGames binds a list envelope to the paging arguments that produced
// it, so a request for a different page never hits the cached one.
type cachedGames struct {
	limit  int
	offset int
	list   *api.GameList
}

// Games leaves the current room (game-list context holds no room
// membership) and returns the paged list, cached under the list tag.
func (c *Client) Games(ctx context.Context, limit, offset int) (*api.GameList, error) {
	if err := c.session.LeaveAll(); err != nil {
		logger.Log.Warnf("Failed to leave room: %v", err)
	}
	c.mutex.Lock()
	c.game = nil
	c.mutex.Unlock()

	if cached, ok := c.cache.Get(cache.TagGames); ok {
		if page, ok := cached.(cachedGames); ok && page.limit == limit && page.offset == offset {
			return page.list, nil
		}
	}

	generation := c.cache.Begin(cache.TagGames)
	list, err := c.api.ListGames(ctx, limit, offset)
	if err != nil {
		return nil, c.surface(err)
	}
	c.cache.Complete(cache.TagGames, generation, cachedGames{limit: limit, offset: offset, list: list})
	return list, nil
}

// OpenGame subscribes to the game's room (leaving any previous room first)
// and returns the game detail, cached under the game's tag.
func (c *Client) OpenGame(ctx context.Context, id uuid.UUID) (*models.GameDetail, error) {
	if err := c.session.SwitchRoom(id.String()); err != nil {
		logger.Log.Warnf("Failed to switch room: %v", err)
	}

	detail, err := c.fetchGame(ctx, id)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	c.game = detail
	c.mutex.Unlock()
	return detail, nil
}

func (c *Client) fetchGame(ctx context.Context, id uuid.UUID) (*models.GameDetail, error) {
	tag := cache.TagGame(id)
	if cached, ok := c.cache.Get(tag); ok {
		return cached.(*models.GameDetail), nil
	}

	generation := c.cache.Begin(tag)
	detail, err := c.api.GetGame(ctx, id)
	if err != nil {
		return nil, c.surface(err)
	}
	c.cache.Complete(tag, generation, detail)
	return detail, nil
}

// onInvalidate refetches the viewed game when its tag goes stale.
func (c *Client) onInvalidate(tag cache.Tag) {
	c.mutex.Lock()
	game := c.game
	c.mutex.Unlock()
	if game == nil || tag != cache.TagGame(game.ID) {
		return
	}

	go func() {
		detail, err := c.fetchGame(context.Background(), game.ID)
		if err != nil {
			logger.Log.Warnf("Refetch after invalidation failed: %v", err)
			return
		}
		c.mutex.Lock()
		if c.game != nil && c.game.ID == detail.ID {
			c.game = detail
		}
		c.mutex.Unlock()
	}()
}

func (c *Client) CreateGame(ctx context.Context) (*models.Game, error) {
	game, err := c.api.CreateGame(ctx)
	if err != nil {
		return nil, c.surface(err)
	}
	return game, nil
}

func (c *Client) JoinGame(ctx context.Context, id uuid.UUID) error {
	return c.surface(c.api.JoinGame(ctx, id))
}

func (c *Client) StartGame(ctx context.Context, id uuid.UUID) error {
	return c.surface(c.api.StartGame(ctx, id))
}

// Game returns the currently viewed game, nil in list context.
func (c *Client) Game() *models.GameDetail {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.game
}

// --- pending action surface ---

// seatID resolves the viewer's seat in the viewed game.
func (c *Client) seatID() (game *models.GameDetail, seat uuid.UUID) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.game == nil || c.me == nil {
		return nil, uuid.Nil
	}
	player := c.game.PlayerByUser(c.me.ID)
	if player == nil {
		return nil, uuid.Nil
	}
	return c.game, player.ID
}

func (c *Client) applySelection(fn func(game *models.GameDetail, seat uuid.UUID, pending models.PendingAction) models.PendingAction) {
	game, seat := c.seatID()
	if game == nil {
		return
	}
	c.mutex.Lock()
	c.pending = fn(game, seat, c.pending)
	c.pendingSeq++
	c.mutex.Unlock()
}

func (c *Client) SelectLand(id uuid.UUID) {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectLand(g, seat, id, p)
	})
}

func (c *Client) SelectPath(id uuid.UUID) {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectPath(g, seat, id, p)
	})
}

func (c *Client) SelectTerrain(id uuid.UUID) {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectTerrain(g, seat, id, p)
	})
}

func (c *Client) SelectPlayer(id uuid.UUID) {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectPlayer(g, seat, id, p)
	})
}

func (c *Client) SelectResourceCard(id uuid.UUID) {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectResourceCard(g, seat, id, p)
	})
}

func (c *Client) SelectResourceType(t models.ResourceType) {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectResourceType(g, seat, t, p)
	})
}

func (c *Client) SelectDevelopmentCard(id uuid.UUID) {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectDevelopmentCard(g, seat, id, p)
	})
}

func (c *Client) SelectDice() {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.SelectDice(g, seat, p)
	})
}

func (c *Client) BuyDevelopmentCard() {
	c.applySelection(func(g *models.GameDetail, seat uuid.UUID, p models.PendingAction) models.PendingAction {
		return action.StartBuyDevelopmentCard(g, seat, p)
	})
}

// Pending returns the in-progress action, nil when none.
func (c *Client) Pending() models.PendingAction {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.pending
}

// Cancel drops the in-progress action. Idempotent.
func (c *Client) Cancel() {
	c.mutex.Lock()
	c.pending = action.Cancel(c.pending)
	c.pendingSeq++
	c.mutex.Unlock()
}

// Confirm submits the pending action. Cleared on success; retained on
// failure so the user can retry or cancel, with the rejection surfaced as a
// transient notification. A selection made while the confirm is in flight
// supersedes the submitted snapshot and survives the clear.
func (c *Client) Confirm(ctx context.Context) error {
	c.mutex.Lock()
	pending := c.pending
	seq := c.pendingSeq
	c.mutex.Unlock()

	if err := c.submitter.Confirm(ctx, pending); err != nil {
		return c.surface(err)
	}

	c.mutex.Lock()
	if c.pendingSeq == seq {
		c.pending = nil
		c.pendingSeq++
	}
	c.mutex.Unlock()
	return nil
}

// --- chat ---

func (c *Client) ChatMessages(ctx context.Context) ([]models.Message, error) {
	game := c.Game()
	if game == nil {
		return nil, errors.New("no game open")
	}
	messages, err := c.api.ListMessages(ctx, game.ID)
	if err != nil {
		return nil, c.surface(err)
	}
	return messages, nil
}

func (c *Client) SendChat(ctx context.Context, detail string) error {
	game := c.Game()
	if game == nil {
		return errors.New("no game open")
	}
	return c.surface(c.api.SendMessage(ctx, game.ID, detail))
}

// --- shared infrastructure accessors ---

func (c *Client) Notifications() *notify.Queue { return c.notifications }
func (c *Client) Session() *session.Session    { return c.session }

// surface is the single cross-cutting boundary converting recoverable
// errors into user-visible transient notifications. Validation and
// completeness rejections pass through silently for the caller to handle.
func (c *Client) surface(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if apiErr.IsUnauthorized() {
			c.notifications.Push("your session has expired, please log in again")
		} else {
			c.notifications.Push(apiErr.Messages()...)
		}
		return err
	}
	if errors.Is(err, action.ErrIncompleteAction) || errors.Is(err, action.ErrNoPendingAction) {
		return err
	}
	c.notifications.Push(api.FallbackMessage)
	return err
}
