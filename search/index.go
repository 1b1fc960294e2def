// Package search keeps an in-memory full text index of the active room
// transcript. The index follows the session: messages are append-only, so
// only the tail that was not indexed yet is written on each sync.
package search

import (
	"consensus-chat/domain"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/blugelabs/bluge"
)

const (
	fieldContent = "content"
	fieldKind    = "kind"
	fieldAuthor  = "author"
	fieldSeq     = "seq"
)

type Index struct {
	mu       sync.Mutex
	log      *slog.Logger
	writer   *bluge.Writer
	room     domain.RoomID
	count    int
	messages map[string]domain.Message
}

func NewIndex(log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &Index{
		log:      log,
		writer:   writer,
		messages: make(map[string]domain.Message),
	}, nil
}

// Sync indexes the messages of session that are not indexed yet.
// Another room, or a shorter history, starts the index over.
func (i *Index) Sync(session domain.Session) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if session.RoomID != i.room || len(session.Messages) < i.count {
		if err := i.resetLocked(); err != nil {
			return err
		}
		i.room = session.RoomID
	}
	if len(session.Messages) == i.count {
		return nil
	}

	batch := bluge.NewBatch()
	for seq := i.count; seq < len(session.Messages); seq++ {
		msg := session.Messages[seq]
		id := docID(seq)
		doc := bluge.NewDocument(id).
			AddField(bluge.NewTextField(fieldContent, msg.Text())).
			AddField(bluge.NewKeywordField(fieldKind, string(msg.Kind()))).
			AddField(bluge.NewNumericField(fieldSeq, float64(seq)).Sortable())
		if author := domain.Author(msg); author != "" {
			doc.AddField(bluge.NewKeywordField(fieldAuthor, strings.ToLower(author)))
		}
		batch.Update(doc.ID(), doc)
		i.messages[id] = msg
	}
	if err := i.writer.Batch(batch); err != nil {
		return fmt.Errorf("unable to index transcript of room %s: %w", i.room, err)
	}
	i.log.Debug("Transcript indexed", "room_id", i.room, "from", i.count, "to", len(session.Messages))
	i.count = len(session.Messages)
	return nil
}

// Search returns the matching messages in arrival order.
func (i *Index) Search(ctx context.Context, query Query) ([]domain.Message, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("unable to read transcript index: %w", err)
	}
	defer func() { _ = reader.Close() }()

	limit := query.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	request := bluge.NewTopNSearch(limit, buildQuery(query)).SortBy([]string{fieldSeq})
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("unable to search transcript: %w", err)
	}

	var results []domain.Message
	match, err := iterator.Next()
	for err == nil && match != nil {
		var id string
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				id = string(value)
				return false
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if msg, ok := i.messages[id]; ok {
			results = append(results, msg)
		}
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.writer.Close()
}

func (i *Index) resetLocked() error {
	if err := i.writer.Close(); err != nil {
		i.log.Warn("Unable to close transcript index", "error", err)
	}
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return fmt.Errorf("failed to open bluge writer: %w", err)
	}
	i.writer = writer
	i.count = 0
	i.messages = make(map[string]domain.Message)
	return nil
}

func buildQuery(query Query) bluge.Query {
	if query.Empty() {
		return bluge.NewMatchAllQuery()
	}
	boolean := bluge.NewBooleanQuery()
	if query.Terms != "" {
		boolean.AddMust(bluge.NewMatchQuery(query.Terms).
			SetField(fieldContent).
			SetOperator(bluge.MatchQueryOperatorAnd))
	}
	if query.Kind != "" {
		boolean.AddMust(bluge.NewTermQuery(string(query.Kind)).SetField(fieldKind))
	}
	if query.Author != "" {
		boolean.AddMust(bluge.NewTermQuery(query.Author).SetField(fieldAuthor))
	}
	return boolean
}

// docID is the position in the transcript, unique within a room.
func docID(seq int) string {
	return strconv.Itoa(seq)
}
