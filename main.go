package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/wfunc/catanclient/client"
	"github.com/wfunc/catanclient/config"
	"github.com/wfunc/catanclient/logger"
	"github.com/wfunc/catanclient/models"
	"github.com/wfunc/catanclient/notify"
)

func main() {
	logger.InitDevelopment()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := client.New(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize client: %v", err)
	}
	defer c.Close()

	// Surface transient notifications (rejected moves etc.) as they arrive.
	c.Notifications().Listen(notify.Listener{
		Pushed: func(n notify.Notification) {
			fmt.Printf("! %s\n", n.Text)
		},
	})

	c.Session().OnConnected(func(reconnected bool) {
		if reconnected {
			fmt.Println("* connection recovered")
		} else {
			fmt.Println("* connected")
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := c.Start(ctx); err != nil {
		logger.Log.Fatalf("Failed to start session: %v", err)
	}

	fmt.Println("catanclient ready. Commands: register, login, games, create, join, start, open,")
	fmt.Println("  land, path, terrain, player, card, dev, res, dice, buy, confirm, cancel,")
	fmt.Println("  chat, messages, logout, quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		select {
		case <-ctx.Done():
			return
		default:
		}

		if cmd == "quit" {
			return
		}
		if err := dispatch(ctx, c, cmd, args); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func dispatch(ctx context.Context, c *client.Client, cmd string, args []string) error {
	switch cmd {
	case "register":
		if len(args) != 3 {
			return fmt.Errorf("usage: register <name> <email> <password>")
		}
		return c.Register(ctx, args[0], args[1], args[2])

	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: login <email> <password>")
		}
		if err := c.Login(ctx, args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", c.Me().DisplayName)
		return nil

	case "logout":
		return c.Logout(ctx)

	case "games":
		list, err := c.Games(ctx, 20, 0)
		if err != nil {
			return err
		}
		fmt.Printf("%d games\n", list.Total)
		for _, game := range list.Data {
			fmt.Printf("  %s  %s  turn %d  %d players\n", game.ID, game.Status, game.Turn, len(game.Players))
		}
		return nil

	case "create":
		game, err := c.CreateGame(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("created %s\n", game.ID)
		return nil

	case "join":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return c.JoinGame(ctx, id)

	case "start":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		return c.StartGame(ctx, id)

	case "open":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		detail, err := c.OpenGame(ctx, id)
		if err != nil {
			return err
		}
		printGame(detail)
		return nil

	case "land", "path", "terrain", "player", "card", "dev":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		switch cmd {
		case "land":
			c.SelectLand(id)
		case "path":
			c.SelectPath(id)
		case "terrain":
			c.SelectTerrain(id)
		case "player":
			c.SelectPlayer(id)
		case "card":
			c.SelectResourceCard(id)
		case "dev":
			c.SelectDevelopmentCard(id)
		}
		printPending(c)
		return nil

	case "res":
		if len(args) != 1 {
			return fmt.Errorf("usage: res <type>")
		}
		c.SelectResourceType(models.ResourceType(args[0]))
		printPending(c)
		return nil

	case "dice":
		c.SelectDice()
		printPending(c)
		return nil

	case "buy":
		c.BuyDevelopmentCard()
		printPending(c)
		return nil

	case "confirm":
		if err := c.Confirm(ctx); err != nil {
			return err
		}
		fmt.Println("confirmed")
		return nil

	case "cancel":
		c.Cancel()
		fmt.Println("cancelled")
		return nil

	case "chat":
		if len(args) == 0 {
			return fmt.Errorf("usage: chat <message>")
		}
		return c.SendChat(ctx, strings.Join(args, " "))

	case "messages":
		messages, err := c.ChatMessages(ctx)
		if err != nil {
			return err
		}
		for _, m := range messages {
			fmt.Printf("  [%s] %s\n", m.CreatedAt.Format("15:04"), m.Detail)
		}
		return nil
	}

	return fmt.Errorf("unknown command %q", cmd)
}

func parseID(args []string) (uuid.UUID, error) {
	if len(args) != 1 {
		return uuid.Nil, fmt.Errorf("expected one id argument")
	}
	return uuid.Parse(args[0])
}

func printGame(detail *models.GameDetail) {
	fmt.Printf("game %s  %s/%s  turn %d\n", detail.ID, detail.Status, detail.Phase, detail.Turn)
	for _, p := range detail.Players {
		marker := " "
		if p.Active {
			marker = "*"
		}
		fmt.Printf(" %s %-6s  seat %d  score %d  %d cards\n", marker, p.Color, p.TurnOrder, p.Score, len(p.ResourceCards))
	}
}

func printPending(c *client.Client) {
	pending := c.Pending()
	if pending == nil {
		fmt.Println("pending: none")
		return
	}
	state := "incomplete"
	if pending.Complete() {
		state = "ready to confirm"
	}
	fmt.Printf("pending: %s (%s)\n", pending.Kind(), state)
}
