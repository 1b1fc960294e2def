package workers

import (
	"consensus-chat/contract"
	"consensus-chat/domain"
	"consensus-chat/moderation"
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"
)

var _ contract.Worker = (*ModerationWorker)(nil)

// ModerationWorker censors posted text and tags it with its language
// before it reaches the room pipeline. Without a moderator, text is
// forwarded unchanged.
type ModerationWorker struct {
	moderator *moderation.Moderator
	posts     chan domain.PostMessageCommand
	sanitized chan domain.PostMessageCommand
	log       *slog.Logger
}

func NewModerationWorker(moderator *moderation.Moderator,
	posts, sanitized chan domain.PostMessageCommand, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator: moderator,
		posts:     posts, sanitized: sanitized, log: log,
	}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case post, ok := <-w.posts:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			select {
			case <-ctx.Done():
				w.log.Debug("Stopping worker")
				return ctx.Err()
			case w.sanitized <- w.sanitize(post):
			}
		}
	}
}

func (w *ModerationWorker) sanitize(post domain.PostMessageCommand) domain.PostMessageCommand {
	info := whatlanggo.Detect(post.Content)
	post.Lang = info.Lang.Iso6391()

	if w.moderator == nil {
		return post
	}
	content, found := w.moderator.Censor(post.Content)
	if len(found) > 0 {
		w.log.Info("Message censored",
			"room_id", post.Room,
			"sender_id", post.SenderID,
			"lang", post.Lang,
			"words", len(found))
	}
	post.Content = content
	post.CensoredWords = found
	return post
}
