package workers

import (
	"consensus-chat/ai"
	"consensus-chat/domain"
	"consensus-chat/domain/event"
	"consensus-chat/mocks"
	"consensus-chat/protocol"
	"consensus-chat/repositories"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type frames struct {
	mu   sync.Mutex
	sent []any
}

func (f *frames) record(_ context.Context, room domain.RoomID, frame any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, frame)
	return nil
}

func (f *frames) all() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.sent...)
}

func runRoom(t *testing.T, worker *RoomWorker, posts chan domain.PostMessageCommand) {
	t.Helper()
	close(posts)
	require.NoError(t, worker.WithClock(func() time.Time { return fixedNow }).Run(context.Background()))
}

func TestRoomWorker_UserOnly(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repository := mocks.NewMockIMessageRepository(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)
	sent := &frames{}

	// Given a room without agents
	repository.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m repositories.DiskMessage) error {
		req.Equal(protocol.TypeUser, m.Type)
		req.Equal("hello", m.Content)
		req.Equal(fixedNow, m.At)
		return nil
	}).Times(1)
	broadcaster.EXPECT().Broadcast(gomock.Any(), domain.RoomID("R1"), gomock.Any()).DoAndReturn(sent.record).Times(1)

	posts := make(chan domain.PostMessageCommand, 1)
	posts <- domain.PostMessageCommand{Room: "R1", SenderID: "alice", SenderName: "alice", Content: "hello"}
	runRoom(t, NewRoomWorker(repository, broadcaster, ai.NewPanel(nil), posts, log), posts)

	// Then only the user frame is broadcast
	req.Equal([]any{protocol.MessageFrame{
		Type:       protocol.TypeUser,
		SenderID:   "alice",
		SenderName: "alice",
		Content:    "hello",
		Timestamp:  protocol.FormatTimestamp(fixedNow),
	}}, sent.all())
}

func TestRoomWorker_AgentRound(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repository := mocks.NewMockIMessageRepository(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)
	sent := &frames{}

	// Given two agents; user, two agents and consensus are stored
	var stored []repositories.DiskMessage
	repository.EXPECT().StoreMessage(gomock.Any()).DoAndReturn(func(m repositories.DiskMessage) error {
		stored = append(stored, m)
		return nil
	}).Times(4)
	broadcaster.EXPECT().Broadcast(gomock.Any(), domain.RoomID("R1"), gomock.Any()).DoAndReturn(sent.record).AnyTimes()

	posts := make(chan domain.PostMessageCommand, 1)
	posts <- domain.PostMessageCommand{Room: "R1", SenderID: "alice", SenderName: "alice", Content: "Compare Go vs Rust"}
	runRoom(t, NewRoomWorker(repository, broadcaster, ai.NewPanel([]string{"Scout", "Critic"}), posts, log), posts)

	// Then the round is user, mode, typing, agents sorted by name, consensus
	all := sent.all()
	req.Len(all, 6)
	req.Equal(protocol.TypeUser, all[0].(protocol.MessageFrame).Type)
	req.Equal(protocol.MessageFrame{Type: protocol.TypeSystem, Content: "Mode Selected: INDEPENDENT", Timestamp: protocol.FormatTimestamp(fixedNow)}, all[1])
	req.Equal(protocol.TypingFrame{Type: protocol.TypeTyping}, all[2])
	req.Equal("Critic", all[3].(protocol.MessageFrame).SenderName)
	req.Equal("Scout", all[4].(protocol.MessageFrame).SenderName)
	consensus := all[5].(protocol.MessageFrame)
	req.Equal(protocol.TypeSystem, consensus.Type)
	req.Equal(protocol.ConsensusSender, consensus.SenderName)
	req.Equal("independent", consensus.ModeUsed)
	req.Len(consensus.AgentResponses, 2)

	req.Equal([]string{protocol.TypeUser, protocol.TypeAgent, protocol.TypeAgent, protocol.TypeSystem},
		[]string{stored[0].Type, stored[1].Type, stored[2].Type, stored[3].Type})
	req.Equal(protocol.ConsensusSender, stored[3].SenderName)
	req.NotEqual(stored[0].ID, stored[1].ID)

	// And the consensus frame reads back as a consensus message
	evt, err := protocol.NewDecoder().Decode(mustEncode(t, consensus))
	req.NoError(err)
	received, ok := evt.(event.MessageReceived)
	req.True(ok)
	req.Equal(domain.KindConsensus, received.Message.Kind())
}

func TestRoomWorker_StoreFailureStillBroadcasts(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repository := mocks.NewMockIMessageRepository(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)

	// Given a failing history store
	repository.EXPECT().StoreMessage(gomock.Any()).Return(fmt.Errorf("disk full")).Times(1)
	broadcaster.EXPECT().Broadcast(gomock.Any(), domain.RoomID("R1"), gomock.Any()).Return(nil).Times(1)

	posts := make(chan domain.PostMessageCommand, 1)
	posts <- domain.PostMessageCommand{Room: "R1", SenderID: "alice", Content: "hello"}

	// Then the message is still delivered to the room
	runRoom(t, NewRoomWorker(repository, broadcaster, nil, posts, log), posts)
	req.True(ctrl.Satisfied())
}

func mustEncode(t *testing.T, frame any) string {
	t.Helper()
	raw, err := protocol.Encode(frame)
	require.NoError(t, err)
	return raw
}
