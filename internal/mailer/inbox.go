package mailer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// InboxMessage is one candidate reply awaiting matching.
type InboxMessage struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// InboxReader lists unread replies and marks them consumed once matched to a
// clarification request.
type InboxReader interface {
	Unread(ctx context.Context, max int) ([]InboxMessage, error)
	MarkRead(ctx context.Context, id string) error
}

// FileInbox reads replies dropped as JSON files into a directory, one message
// per file. Marking read renames the file with a ".read" suffix so repeat
// polls skip it.
type FileInbox struct {
	dir string
}

func NewFileInbox(dir string) *FileInbox {
	return &FileInbox{dir: dir}
}

func (f *FileInbox) Unread(_ context.Context, max int) ([]InboxMessage, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "inbox: read dir %s", f.dir)
	}

	var out []InboxMessage
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".read.json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			return nil, eris.Wrapf(err, "inbox: read %s", name)
		}
		var msg InboxMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			zap.L().Warn("inbox: skipping malformed message", zap.String("file", name), zap.Error(err))
			continue
		}
		if msg.ID == "" {
			msg.ID = strings.TrimSuffix(name, ".json")
		}
		out = append(out, msg)
		if max > 0 && len(out) >= max {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return out, nil
}

func (f *FileInbox) MarkRead(_ context.Context, id string) error {
	src := filepath.Join(f.dir, id+".json")
	dst := filepath.Join(f.dir, id+".read.json")
	if err := os.Rename(src, dst); err != nil {
		return eris.Wrapf(err, "inbox: mark read %s", id)
	}
	return nil
}

// SimInbox serves messages from memory for tests.
type SimInbox struct {
	Messages []InboxMessage
	read     map[string]bool
}

func NewSimInbox(msgs ...InboxMessage) *SimInbox {
	return &SimInbox{Messages: msgs, read: make(map[string]bool)}
}

func (s *SimInbox) Unread(_ context.Context, max int) ([]InboxMessage, error) {
	var out []InboxMessage
	for _, m := range s.Messages {
		if s.read[m.ID] {
			continue
		}
		out = append(out, m)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, nil
}

func (s *SimInbox) MarkRead(_ context.Context, id string) error {
	s.read[id] = true
	return nil
}
