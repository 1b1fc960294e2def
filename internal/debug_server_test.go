package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestInspectHandler(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	// Given one stored history entry and an unrelated key
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	value, err := structpb.NewStruct(map[string]any{"type": "user", "sender_name": "alice", "content": "hello"})
	req.NoError(err)
	bytes, err := proto.Marshal(value)
	req.NoError(err)
	req.NoError(db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte("msg:R1:"+itoa(at.UnixNano())+":0f8e7d6c-5b4a-3928-1706-f5e4d3c2b1a0"), bytes); err != nil {
			return err
		}
		return txn.Set([]byte("blacklist:badger"), nil)
	}))

	// When the history is inspected
	rec := httptest.NewRecorder()
	NewInspectHandler(db, HistoryMapper, func() map[string]any { return map[string]any{"rooms": 1} }).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/inspect", nil))

	// Then only history rows are listed, decoded
	req.Equal(http.StatusOK, rec.Code)
	var page PageData
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &page))
	req.Equal("msg:", page.Prefix)
	req.Len(page.Items, 1)
	req.Equal(InspectRow{
		Key:       "msg:R1:" + itoa(at.UnixNano()) + ":0f8e7d6c-5b4a-3928-1706-f5e4d3c2b1a0",
		Type:      "user",
		Timestamp: "09:30:00",
		EntityID:  "0f8e7d6c",
		Namespace: "R1",
		Detail:    "alice: hello",
	}, page.Items[0])
	req.EqualValues(1, page.Stats["rooms"])
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
