//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"consensus-chat/domain"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type IMessageRepository interface {
	StoreMessage(message DiskMessage) error
	GetMessages(room domain.RoomID, cursor *string) ([]DiskMessage, *string, error)
	GetRecentMessages(room domain.RoomID) ([]DiskMessage, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is a room history entry, stored in the taxonomy it is
// replayed with: Type is user, agent or system.
type DiskMessage struct {
	ID         uuid.UUID
	Room       domain.RoomID
	Type       string
	SenderID   string
	SenderName string
	Content    string
	ModeUsed   string
	At         time.Time
}

// StoreMessage persists a message in BadgerDB.
// The key is formatted as "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// The room id is query escaped so a ':' in it cannot leak into another room prefix.
func (m MessageRepository) StoreMessage(message DiskMessage) error {
	key := fmt.Sprintf("%s%019d:%s",
		roomPrefix(message.Room),
		message.At.UnixNano(),
		message.ID,
	)
	value, err := fromDiskMessage(message)
	if err != nil {
		return err
	}
	bytes, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages retrieves messages for a specific room, newest first, using a prefix scan.
// Thanks to the padded timestamp in the key, messages are naturally sorted by time.
// It stops collecting messages once the configured limitMessages is reached and
// returns the cursor to pass back for the next, older, page.
func (m MessageRepository) GetMessages(room domain.RoomID, cursor *string) ([]DiskMessage, *string, error) {
	var byteMessages [][]byte
	var diskMessages []DiskMessage
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := roomPrefix(room)
		prefix := []byte(prefixStr)
		prefixLen := len(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Start after the newest possible key, msg:{room}:9999999999999999999,
			// then walk back in time
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)

		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			// Memorize cursor part of the actual key
			lastKey = string(item.Key()[prefixLen:])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, slices.Clone(value))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, b := range byteMessages {
		var value structpb.Struct
		if err = proto.Unmarshal(b, &value); err != nil {
			return nil, nil, err
		}
		message, err := toDiskMessage(room, &value)
		if err != nil {
			return nil, nil, err
		}
		diskMessages = append(diskMessages, message)
	}
	return diskMessages, &lastKey, nil
}

// GetRecentMessages returns the latest page of a room in chronological order,
// the order history is replayed in.
func (m MessageRepository) GetRecentMessages(room domain.RoomID) ([]DiskMessage, error) {
	messages, _, err := m.GetMessages(room, nil)
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}

func roomPrefix(room domain.RoomID) string {
	return fmt.Sprintf("msg:%s:", url.QueryEscape(string(room)))
}

func fromDiskMessage(message DiskMessage) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":          message.ID.String(),
		"type":        message.Type,
		"sender_id":   message.SenderID,
		"sender_name": message.SenderName,
		"content":     message.Content,
		"mode_used":   message.ModeUsed,
		"at":          message.At.UTC().Format(time.RFC3339Nano),
	})
}

func toDiskMessage(room domain.RoomID, value *structpb.Struct) (DiskMessage, error) {
	fields := value.GetFields()
	parsedID, err := uuid.Parse(fields["id"].GetStringValue())
	if err != nil {
		return DiskMessage{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, fields["at"].GetStringValue())
	if err != nil {
		return DiskMessage{}, err
	}
	return DiskMessage{
		ID:         parsedID,
		Room:       room,
		Type:       fields["type"].GetStringValue(),
		SenderID:   fields["sender_id"].GetStringValue(),
		SenderName: fields["sender_name"].GetStringValue(),
		Content:    fields["content"].GetStringValue(),
		ModeUsed:   fields["mode_used"].GetStringValue(),
		At:         at,
	}, nil
}
