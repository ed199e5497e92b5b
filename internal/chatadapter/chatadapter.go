// Package chatadapter defines the chat-transport contract the Conversation
// FSM drives (spec §1: "out of scope... messages, inline keyboards, file
// up/downloads are abstracted"), plus an in-memory fake for tests.
package chatadapter

import (
	"context"
	"io"
)

// Transport is everything internal/convoy needs from a concrete chat SDK.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard [][]Button) (messageID int64, err error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, keyboard [][]Button) error
	AnswerCallback(ctx context.Context, callbackID string, text string) error
	DownloadFile(ctx context.Context, fileID string) (filename string, data io.ReadCloser, err error)
	UploadFile(ctx context.Context, chatID int64, filename string, data io.Reader) error
}

// Button is one inline-keyboard button: a user-visible label and an
// opaque callback payload the transport returns verbatim on click.
type Button struct {
	Label    string
	Callback string
}

// UncaughtErrorMessage is what the chat adapter shows the user for any
// error it did not specifically handle (spec §7: "turns any uncaught error
// into a generic... message while preserving the internal error for
// operator logs").
const UncaughtErrorMessage = "Something went wrong. Try /start."
