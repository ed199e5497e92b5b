package chatadapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// SentMessage records one SendMessage/EditMessage call, for test assertions.
type SentMessage struct {
	ChatID    int64
	MessageID int64
	Text      string
	Keyboard  [][]Button
}

// Fake is an in-memory Transport for tests, matching the way the teacher
// toolkit's lower layers are exercised against fakes rather than live
// devices.
type Fake struct {
	mu       sync.Mutex
	nextID   int64
	Sent     []SentMessage
	Files    map[string][]byte
	Uploaded []SentFile
}

// SentFile records one UploadFile call.
type SentFile struct {
	ChatID   int64
	Filename string
	Data     []byte
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{Files: make(map[string][]byte)}
}

func (f *Fake) SendMessage(_ context.Context, chatID int64, text string, keyboard [][]Button) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.Sent = append(f.Sent, SentMessage{ChatID: chatID, MessageID: f.nextID, Text: text, Keyboard: keyboard})
	return f.nextID, nil
}

func (f *Fake) EditMessage(_ context.Context, chatID, messageID int64, text string, keyboard [][]Button) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.Sent {
		if m.ChatID == chatID && m.MessageID == messageID {
			f.Sent[i].Text = text
			f.Sent[i].Keyboard = keyboard
			return nil
		}
	}
	return fmt.Errorf("chatadapter: fake: no such message %d in chat %d", messageID, chatID)
}

func (f *Fake) AnswerCallback(_ context.Context, _ string, _ string) error {
	return nil
}

func (f *Fake) DownloadFile(_ context.Context, fileID string) (string, io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.Files[fileID]
	if !ok {
		return "", nil, fmt.Errorf("chatadapter: fake: no such file %q", fileID)
	}
	return fileID, io.NopCloser(bytes.NewReader(data)), nil
}

func (f *Fake) UploadFile(_ context.Context, chatID int64, filename string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Uploaded = append(f.Uploaded, SentFile{ChatID: chatID, Filename: filename, Data: raw})
	return nil
}

var _ Transport = (*Fake)(nil)
