// holdem-watch is a terminal lobby monitor: it connects to a running
// holdem-tables server and renders the table list live.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gorilla/websocket"
	"github.com/pterm/pterm"

	"github.com/lox/holdem-tables/internal/game"
	"github.com/lox/holdem-tables/internal/server"
)

var CLI struct {
	URL      string `short:"u" long:"url" default:"ws://localhost:8080/ws" help:"Server WebSocket URL"`
	Player   string `short:"p" long:"player" default:"lobby-watcher" help:"Player id to authenticate as"`
	Interval int    `short:"i" long:"interval" default:"2" help:"Refresh interval in seconds"`
}

func main() {
	ctx := kong.Parse(&CLI)

	conn, _, err := websocket.DefaultDialer.Dial(CLI.URL, nil)
	if err != nil {
		pterm.Error.Printfln("Failed to connect to %s: %v", CLI.URL, err)
		ctx.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	if err := send(conn, server.MessageTypeAuth, server.AuthData{PlayerID: CLI.Player}); err != nil {
		pterm.Error.Printfln("Auth failed: %v", err)
		ctx.Exit(1)
	}

	var (
		mu     sync.Mutex
		tables []game.TableSummary
	)

	// Reader: collect game lists, ignore everything else.
	go func() {
		for {
			var msg server.Message
			if err := conn.ReadJSON(&msg); err != nil {
				pterm.Error.Printfln("Connection lost: %v", err)
				os.Exit(1)
			}
			switch msg.Type {
			case server.MessageTypeGameList:
				var list []game.TableSummary
				if err := json.Unmarshal(msg.Data, &list); err != nil {
					continue
				}
				mu.Lock()
				tables = list
				mu.Unlock()
			case server.MessageTypeError:
				var e server.ErrorData
				if err := json.Unmarshal(msg.Data, &e); err == nil {
					pterm.Warning.Printfln("Server error: %s (%s)", e.Message, e.Code)
				}
			}
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	area, err := pterm.DefaultArea.WithFullscreen().Start()
	if err != nil {
		pterm.Error.Printfln("Failed to start display: %v", err)
		ctx.Exit(1)
	}
	defer func() { _ = area.Stop() }()

	ticker := time.NewTicker(time.Duration(CLI.Interval) * time.Second)
	defer ticker.Stop()

	for {
		if err := send(conn, server.MessageTypeListGames, server.GameRefData{}); err != nil {
			pterm.Error.Printfln("Request failed: %v", err)
			ctx.Exit(1)
		}

		mu.Lock()
		snapshot := make([]game.TableSummary, len(tables))
		copy(snapshot, tables)
		mu.Unlock()
		area.Update(render(snapshot))

		select {
		case <-ticker.C:
		case <-sig:
			return
		}
	}
}

func send(conn *websocket.Conn, messageType server.MessageType, payload any) error {
	msg, err := server.NewMessage(messageType, payload)
	if err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

func render(tables []game.TableSummary) string {
	header := pterm.DefaultHeader.Sprint("Hold'em Tables")
	if len(tables) == 0 {
		return header + "\n\n" + pterm.Gray("No tables open.")
	}

	rows := pterm.TableData{
		{"Table", "Name", "Players", "Status", "Buy-in", "Locked", "Created"},
	}
	for _, t := range tables {
		locked := ""
		if t.PasswordProtected {
			locked = "yes"
		}
		rows = append(rows, []string{
			t.GameID,
			t.TableName,
			fmt.Sprintf("%d/%d", t.Players, t.MaxPlayers),
			t.Status,
			fmt.Sprintf("%d", t.BuyIn),
			locked,
			t.CreatedAt.Format("15:04:05"),
		})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return header
	}
	return header + "\n\n" + rendered
}
