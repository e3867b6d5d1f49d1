// Package lobby keeps the set of spectators watching the match and fans
// every frame out to them.
package lobby

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"nnpong/internal/wire"
)

// WriteTimeout bounds how long one slow spectator can hold up a frame.
const WriteTimeout = 100 * time.Millisecond

type Lobby struct {
	lobbyMembers sync.Map
}

type Spectator struct {
	ID   uuid.UUID
	Conn net.Conn
}

func CreateLobby() *Lobby {
	return &Lobby{}
}

func (l *Lobby) Join(conn net.Conn) uuid.UUID {
	id := uuid.New()
	l.lobbyMembers.Store(id, Spectator{ID: id, Conn: conn})
	slog.Debug("spectator joined", slog.String("id", id.String()), slog.String("addr", conn.RemoteAddr().String()))
	return id
}

func (l *Lobby) Leave(id uuid.UUID) {
	v, ok := l.lobbyMembers.LoadAndDelete(id)
	if !ok {
		return
	}
	v.(Spectator).Conn.Close()
	slog.Debug("spectator left", slog.String("id", id.String()))
}

func (l *Lobby) Len() int {
	n := 0
	l.lobbyMembers.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

// Broadcast sends f to every spectator and drops the ones that fail.
func (l *Lobby) Broadcast(f wire.Frame) {
	var disconnected []uuid.UUID
	l.lobbyMembers.Range(func(key, value any) bool {
		s := value.(Spectator)
		s.Conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if err := wire.WriteFrame(s.Conn, f); err != nil {
			slog.Debug("error broadcasting to spectator", slog.String("id", s.ID.String()), slog.Any("error", err))
			disconnected = append(disconnected, s.ID)
		}
		return true
	})

	for _, id := range disconnected {
		l.Leave(id)
	}
}

// Listen accepts spectators on addr until ctx is done.
func (l *Lobby) Listen(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	slog.Info("accepting spectators", slog.String("addr", listener.Addr().String()))
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			slog.Error("accepting spectator", slog.Any("error", err))
			continue
		}
		l.Join(conn)
	}
}
