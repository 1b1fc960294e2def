// Package server is the development room server: it speaks the room
// protocol the consensus client reads, so the client can run without the
// upstream service.
package server

import (
	"consensus-chat/auth"
	"consensus-chat/contract"
	"consensus-chat/domain"
	"consensus-chat/protocol"
	"consensus-chat/repositories"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

type RoomServer struct {
	log         *slog.Logger
	registry    contract.IRegistry
	broadcaster contract.Broadcaster
	repository  repositories.IMessageRepository
	interceptor auth.Interceptor
	posts       chan<- domain.PostMessageCommand
	bufferSize  int
	now         func() time.Time
}

func NewRoomServer(
	log *slog.Logger,
	registry contract.IRegistry,
	broadcaster contract.Broadcaster,
	repository repositories.IMessageRepository,
	interceptor auth.Interceptor,
	posts chan<- domain.PostMessageCommand,
	bufferSize int,
) *RoomServer {
	return &RoomServer{
		log:         log,
		registry:    registry,
		broadcaster: broadcaster,
		repository:  repository,
		interceptor: interceptor,
		posts:       posts,
		bufferSize:  max(bufferSize, 1),
		now:         time.Now,
	}
}

// Handler routes GET /api/ws/{room}?token= to the room protocol and
// GET /up to a liveness probe.
func (s *RoomServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Terminal clients send no browser origin, any origin is accepted.
	wsServer := websocket.Server{
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler:   s.serveRoom,
	}
	mux.Handle("GET /api/ws/{room}", s.interceptor.Wrap(wsServer))
	return mux
}

func (s *RoomServer) serveRoom(ws *websocket.Conn) {
	defer func() {
		_ = ws.Close()
	}()

	req := ws.Request()
	ctx := req.Context()
	room := domain.RoomID(strings.TrimSpace(req.PathValue("room")))
	userID, _ := auth.UserIDFromContext(ctx)
	peerID := uuid.NewString()
	log := s.log.With("room_id", room, "user_id", userID)

	// History goes straight to the socket, before any live frame.
	if err := s.replay(ws, room); err != nil {
		log.Warn("Unable to replay history", "error", err)
		return
	}

	peer := newPeer(s.bufferSize)
	go peer.pump(ws, log)
	defer peer.stop()

	online := s.registry.Join(room, peerID, userID, peer)
	log.Info("Participant joined", "online", len(online))
	s.broadcast(ctx, room, protocol.NewRosterFrame(protocol.TypeUserJoined, userID, online, s.now()))

	defer func() {
		online := s.registry.Leave(room, peerID)
		log.Info("Participant left", "online", len(online))
		s.broadcast(context.WithoutCancel(ctx), room, protocol.NewRosterFrame(protocol.TypeUserLeft, userID, online, s.now()))
	}()

	s.read(ctx, ws, room, userID, log)
}

func (s *RoomServer) replay(ws *websocket.Conn, room domain.RoomID) error {
	messages, err := s.repository.GetRecentMessages(room)
	if err != nil {
		return err
	}
	for _, m := range messages {
		frame, err := protocol.Encode(protocol.MessageFrame{
			Type:       m.Type,
			SenderID:   m.SenderID,
			SenderName: m.SenderName,
			Content:    m.Content,
			ModeUsed:   m.ModeUsed,
			Timestamp:  protocol.FormatTimestamp(m.At),
		})
		if err != nil {
			return err
		}
		if err := websocket.Message.Send(ws, frame); err != nil {
			return err
		}
	}
	return nil
}

// read forwards every non blank outbound frame to the room pipeline.
// Frames that are not {"message": ...} are ignored.
func (s *RoomServer) read(ctx context.Context, ws *websocket.Conn, room domain.RoomID, userID string, log *slog.Logger) {
	for {
		var raw string
		if err := websocket.Message.Receive(ws, &raw); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Debug("Read failed", "error", err)
			}
			return
		}
		out, err := protocol.DecodeOutbound(raw)
		if err != nil {
			log.Debug("Frame ignored", "error", err)
			continue
		}
		text := strings.TrimSpace(out.Message)
		if text == "" {
			continue
		}
		select {
		case s.posts <- domain.PostMessageCommand{
			Room:       room,
			SenderID:   userID,
			SenderName: userID,
			Content:    text,
			CreatedAt:  s.now().UTC(),
		}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *RoomServer) broadcast(ctx context.Context, room domain.RoomID, frame any) {
	if err := s.broadcaster.Broadcast(ctx, room, frame); err != nil {
		s.log.Debug("Roster broadcast incomplete", "room_id", room, "error", err)
	}
}
