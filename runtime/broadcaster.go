package runtime

import (
	"consensus-chat/contract"
	"consensus-chat/domain"
	"consensus-chat/protocol"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var _ contract.Broadcaster = (*RoomBroadcaster)(nil)

// RoomBroadcaster encodes a frame once and writes it to every peer of a
// room. A failing peer does not stop delivery to the others.
type RoomBroadcaster struct {
	registry contract.IRegistry
	log      *slog.Logger
}

func NewBroadcaster(registry contract.IRegistry, log *slog.Logger) *RoomBroadcaster {
	return &RoomBroadcaster{registry: registry, log: log}
}

func (b *RoomBroadcaster) Broadcast(ctx context.Context, roomID domain.RoomID, frame any) error {
	text, err := protocol.Encode(frame)
	if err != nil {
		return fmt.Errorf("unable to encode frame for room %s: %w", roomID, err)
	}
	var errs []error
	for _, peer := range b.registry.Peers(roomID) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := peer.Send(text); err != nil {
			b.log.Debug("Peer unreachable", "room_id", roomID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
