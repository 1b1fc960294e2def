//go:generate go run go.uber.org/mock/mockgen -source=word.go -destination=../mocks/mock_word_repository.go -package=mocks
package repositories

import (
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const blacklistPrefix = "blacklist:"

// IWordRepository keeps the censored dictionary of the room server.
type IWordRepository interface {
	StoreWords(words []string) error
	GetWords() ([]string, error)
}

type WordRepository struct {
	db *badger.DB
}

func NewWordRepository(db *badger.DB) WordRepository {
	return WordRepository{db: db}
}

// StoreWords adds words to the dictionary. Words live in the keys, so
// storing one twice is a no-op.
func (w WordRepository) StoreWords(words []string) error {
	wb := w.db.NewWriteBatch()
	for _, word := range words {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if err := wb.Set([]byte(blacklistPrefix+word), nil); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

// GetWords returns the dictionary in key order.
func (w WordRepository) GetWords() ([]string, error) {
	var words []string
	err := w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // words live in the keys
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(blacklistPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			words = append(words, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	return words, err
}
