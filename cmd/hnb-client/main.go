// cmd/hnb-client/main.go
//
// Interactive terminal client for Hand-and-Brain chess. Composes the
// REST lobby client, the websocket channel, the session reconciler, and
// the session controller into a small REPL.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hnbchess/hnb-chess/internal/api"
	"github.com/hnbchess/hnb-chess/internal/game"
	"github.com/hnbchess/hnb-chess/internal/session"
	"github.com/hnbchess/hnb-chess/internal/wsclient"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "authority base URL")
	wsURL := flag.String("ws", "", "websocket URL (default derived from -server)")
	name := flag.String("name", "", "username to register on startup")
	level := flag.String("log", "warn", "log level")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		logger = logger.Level(lvl)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rest := api.New(*server)

	var me *game.Player
	if *name != "" {
		p, err := rest.CreatePlayer(ctx, *name)
		if err != nil {
			fmt.Println("register error:", err)
			os.Exit(1)
		}
		me = p
		fmt.Printf("registered as %s (%s)\n", me.Username, me.ID)
	}

	endpoint := *wsURL
	if endpoint == "" {
		endpoint = strings.Replace(*server, "http", "ws", 1) + "/ws"
	}

	ch := wsclient.New(endpoint, logger)
	rec := session.NewReconciler(ch, logger)
	rec.OnUpdate(func(tr session.Transition, snap session.Snapshot) {
		switch tr {
		case session.TransitionGameStarted:
			fmt.Println("\n* game started")
		case session.TransitionSeatFilled:
			fmt.Printf("\n* seat filled (%d/4)\n", snap.Game.SeatCount())
		case session.TransitionNominationMade:
			fmt.Printf("\n* brain nominated: %s\n", snap.Game.SelectedPiece)
		case session.TransitionMoveApplied:
			fmt.Printf("\n* move played, %s %s to act\n", snap.Game.CurrentTeam, snap.Game.CurrentRole)
		case session.TransitionGameFinished:
			fmt.Println("\n* game over")
		}
	})
	rec.OnReject(func(gameID, reason string) {
		fmt.Printf("\n* rejected: %s\n", reason)
	})

	if err := ch.Connect(ctx); err != nil {
		fmt.Println("connect error:", err)
		os.Exit(1)
	}
	go rec.Run(ctx)

	playerID := ""
	if me != nil {
		playerID = me.ID
	}

	fmt.Println("type 'help' for commands")
	repl(ctx, rest, ch, rec, logger, playerID)
	_ = ch.Disconnect()
}

func repl(ctx context.Context, rest *api.Client, ch *wsclient.Client, rec *session.Reconciler, logger zerolog.Logger, playerID string) {
	// The controller binds the acting player; registering mid-session
	// rebuilds it.
	ctrl := session.NewController(playerID, ch, rec, logger)
	s := bufio.NewScanner(os.Stdin)
	prompt := func() { fmt.Print("> ") }
	prompt()
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			prompt()
			continue
		}
		args := strings.Fields(line)
		switch strings.ToLower(args[0]) {
		case "help":
			printHelp()
		case "whoami":
			if playerID == "" {
				fmt.Println("(not registered; use 'register <name>')")
			} else {
				fmt.Println("player:", playerID)
			}
		case "register":
			if len(args) < 2 {
				fmt.Println("usage: register <name>")
				break
			}
			p, err := rest.CreatePlayer(ctx, args[1])
			if err != nil {
				fmt.Println("error:", err)
			} else {
				playerID = p.ID
				ctrl = session.NewController(playerID, ch, rec, logger)
				fmt.Printf("registered as %s (%s)\n", p.Username, p.ID)
			}
		case "players":
			list, err := rest.ListPlayers(ctx)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			if len(list) == 0 {
				fmt.Println("(no players)")
			}
			for _, p := range list {
				fmt.Printf("- %s %s rating=%d\n", p.ID, p.Username, p.Rating)
			}
		case "games":
			list, err := rest.ListGames(ctx)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			if len(list) == 0 {
				fmt.Println("(no games)")
			}
			for _, g := range list {
				fmt.Printf("- %s status=%s seats=%d/4\n", g.ID, g.Status, g.SeatCount())
			}
		case "create":
			// create <team> <role>
			if len(args) < 3 {
				fmt.Println("usage: create <white|black> <hand|brain>")
				break
			}
			team, role, err := parseSeat(args[1], args[2])
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			g, err := rest.CreateGame(ctx, playerID, team, role)
			if err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Println("created:", g.ID)
				ctrl.Select(g.ID)
			}
		case "join":
			// join <gameID> <team> <role>
			if len(args) < 4 {
				fmt.Println("usage: join <gameID> <white|black> <hand|brain>")
				break
			}
			team, role, err := parseSeat(args[2], args[3])
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			g, err := rest.JoinGame(ctx, args[1], playerID, team, role)
			if err != nil {
				fmt.Println("error:", err)
			} else {
				fmt.Printf("joined %s as %s %s\n", g.ID, team, role)
				ctrl.Select(g.ID)
			}
		case "watch":
			if len(args) < 2 {
				fmt.Println("usage: watch <gameID>")
				break
			}
			ctrl.Select(args[1])
			fmt.Println("watching", args[1])
		case "nominate":
			if len(args) < 2 {
				fmt.Println("usage: nominate <pawn|knight|bishop|rook|queen|king>")
				break
			}
			reportAction(ctrl.SubmitNomination(args[1]))
		case "move":
			if len(args) < 2 {
				fmt.Println("usage: move <e2e4>")
				break
			}
			reportAction(ctrl.SubmitMove(args[1]))
		case "view", "state":
			v, ok := ctrl.View()
			if !ok {
				fmt.Println("(no snapshot yet; 'watch' or 'join' a game)")
				break
			}
			printView(v)
		case "moves":
			id := rec.GameID()
			if id == "" {
				fmt.Println("(no active game)")
				break
			}
			list, err := rest.ListMoves(ctx, id)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			for _, m := range list {
				fmt.Printf("%3d. %s\n", m.Number, m.Move)
			}
		case "suggestions":
			id := rec.GameID()
			if id == "" {
				fmt.Println("(no active game)")
				break
			}
			list, err := rest.ListSuggestions(ctx, id)
			if err != nil {
				fmt.Println("error:", err)
				break
			}
			for _, sg := range list {
				fmt.Printf("%3d. %s\n", sg.Number, sg.Piece)
			}
		case "leave":
			ctrl.Close()
			fmt.Println("left game")
		case "status":
			if rec.Connected() {
				fmt.Println("connected")
			} else {
				fmt.Println("disconnected (reconnecting)")
			}
		case "quit", "exit":
			fmt.Println("bye")
			return
		default:
			fmt.Println("unknown command; type 'help'")
		}
		prompt()
	}
}

func printView(v session.View) {
	g := v.Game
	fmt.Printf("game=%s status=%s seq=%d\n", g.ID, g.Status, v.Seq)
	fmt.Printf("fen: %s\n", g.FEN)
	fmt.Printf("seats: W-hand=%s W-brain=%s B-hand=%s B-brain=%s\n",
		seatName(g.WhiteHand), seatName(g.WhiteBrain), seatName(g.BlackHand), seatName(g.BlackBrain))
	if v.InProgress {
		turn := fmt.Sprintf("%s %s", v.ExpectedTeam, v.ExpectedRole)
		if v.YourTurn {
			turn += " (you)"
		}
		fmt.Println("to act:", turn)
		if g.SelectedPiece != "" {
			fmt.Println("nominated piece:", g.SelectedPiece)
		}
	}
}

func seatName(p *game.Player) string {
	if p == nil {
		return "-"
	}
	return p.Username
}

func parseSeat(teamArg, roleArg string) (game.TeamColor, game.PlayerRole, error) {
	team, err := game.ParseTeamColor(teamArg)
	if err != nil {
		return "", "", err
	}
	role, err := game.ParsePlayerRole(roleArg)
	if err != nil {
		return "", "", err
	}
	return team, role, nil
}

func reportAction(err error) {
	if err == nil {
		fmt.Println("sent")
		return
	}
	if adv, ok := session.AsAdvisory(err); ok {
		fmt.Println("not sent:", adv.Reason)
		return
	}
	fmt.Println("error:", err)
}

func printHelp() {
	fmt.Println(`commands:
  register <name>
  players
  games
  create <white|black> <hand|brain>
  join <gameID> <white|black> <hand|brain>
  watch <gameID>
  nominate <piece>
  move <e2e4>
  view
  moves
  suggestions
  leave
  status
  quit`)
}
