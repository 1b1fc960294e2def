package workers

import (
	"consensus-chat/ai"
	"consensus-chat/contract"
	"consensus-chat/domain"
	"consensus-chat/protocol"
	"consensus-chat/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var _ contract.Worker = (*RoomWorker)(nil)

const consensusSenderID = "consensus"

// RoomWorker stores and broadcasts every sanitized post. When the panel
// has agents it then announces the mode, signals typing, streams one
// agent frame per agent and closes the round with the consensus, sent
// in the legacy shape: a system frame whose sender is Consensus.
type RoomWorker struct {
	repository  repositories.IMessageRepository
	broadcaster contract.Broadcaster
	panel       *ai.Panel
	posts       chan domain.PostMessageCommand
	log         *slog.Logger
	now         func() time.Time
	newID       func() uuid.UUID
}

func NewRoomWorker(repository repositories.IMessageRepository, broadcaster contract.Broadcaster,
	panel *ai.Panel, posts chan domain.PostMessageCommand, log *slog.Logger) *RoomWorker {
	return &RoomWorker{
		repository:  repository,
		broadcaster: broadcaster,
		panel:       panel,
		posts:       posts,
		log:         log,
		now:         time.Now,
		newID:       uuid.New,
	}
}

// WithClock replaces the clock used to stamp stored and broadcast frames.
func (w *RoomWorker) WithClock(now func() time.Time) *RoomWorker {
	w.now = now
	return w
}

func (w *RoomWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case post, ok := <-w.posts:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, post); err != nil {
				return err
			}
		}
	}
}

func (w *RoomWorker) handle(ctx context.Context, post domain.PostMessageCommand) error {
	at := w.now()
	w.store(repositories.DiskMessage{
		Room:       post.Room,
		Type:       protocol.TypeUser,
		SenderID:   post.SenderID,
		SenderName: post.SenderName,
		Content:    post.Content,
		At:         at,
	})
	if err := w.broadcast(ctx, post.Room, protocol.MessageFrame{
		Type:       protocol.TypeUser,
		SenderID:   post.SenderID,
		SenderName: post.SenderName,
		Content:    post.Content,
		Timestamp:  protocol.FormatTimestamp(at),
	}); err != nil {
		return err
	}

	if w.panel == nil || w.panel.Empty() {
		return nil
	}
	reply := w.panel.Respond(post.Content)
	mode := string(reply.Mode)
	w.log.Debug("Agents answering", "room_id", post.Room, "mode", mode, "agents", len(reply.Responses))

	if err := w.broadcast(ctx, post.Room, protocol.MessageFrame{
		Type:      protocol.TypeSystem,
		Content:   fmt.Sprintf("Mode Selected: %s", strings.ToUpper(mode)),
		Timestamp: protocol.FormatTimestamp(w.now()),
	}); err != nil {
		return err
	}
	if err := w.broadcast(ctx, post.Room, protocol.TypingFrame{Type: protocol.TypeTyping}); err != nil {
		return err
	}

	for _, response := range reply.Responses {
		at := w.now()
		w.store(repositories.DiskMessage{
			Room:       post.Room,
			Type:       protocol.TypeAgent,
			SenderID:   response.AgentName,
			SenderName: response.AgentName,
			Content:    response.Content,
			ModeUsed:   mode,
			At:         at,
		})
		if err := w.broadcast(ctx, post.Room, protocol.MessageFrame{
			Type:       protocol.TypeAgent,
			SenderName: response.AgentName,
			Content:    response.Content,
			ModeUsed:   mode,
			Timestamp:  protocol.FormatTimestamp(at),
		}); err != nil {
			return err
		}
	}

	at = w.now()
	w.store(repositories.DiskMessage{
		Room:       post.Room,
		Type:       protocol.TypeSystem,
		SenderID:   consensusSenderID,
		SenderName: protocol.ConsensusSender,
		Content:    reply.Consensus,
		ModeUsed:   mode,
		At:         at,
	})
	return w.broadcast(ctx, post.Room, protocol.MessageFrame{
		Type:       protocol.TypeSystem,
		SenderName: protocol.ConsensusSender,
		Content:    reply.Consensus,
		ModeUsed:   mode,
		AgentResponses: lo.Map(reply.Responses, func(r domain.AgentContribution, _ int) protocol.Contribution {
			return protocol.Contribution{AgentName: r.AgentName, Content: r.Content}
		}),
		Timestamp: protocol.FormatTimestamp(at),
	})
}

// store keeps the history best effort: a failed write is logged and the
// frame is still broadcast.
func (w *RoomWorker) store(message repositories.DiskMessage) {
	message.ID = w.newID()
	if err := w.repository.StoreMessage(message); err != nil {
		w.log.Error("Unable to store message", "room_id", message.Room, "type", message.Type, "error", err)
	}
}

// broadcast only fails when the worker is being stopped.
func (w *RoomWorker) broadcast(ctx context.Context, room domain.RoomID, frame any) error {
	if err := w.broadcaster.Broadcast(ctx, room, frame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.log.Warn("Broadcast incomplete", "room_id", room, "error", err)
	}
	return nil
}
