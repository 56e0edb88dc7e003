package mq

import "context"

type MessageQueue interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, visibilityTimeout int32) (*Message, error)
	Delete(ctx context.Context, msg *Message) error
}

type Message struct {
	Id   string
	Body string
}

// PurgeUserDataMessage is enqueued on account deletion; the purge
// worker removes everything the user owned.
type PurgeUserDataMessage struct {
	UserId string `json:"userId"`
}

// LogEmbeddingMessage fans a paid user's new log out to the external
// embedding pipeline. Send-only here; the pipeline owns the other end.
type LogEmbeddingMessage struct {
	UserId  string `json:"userId"`
	LogId   string `json:"logId"`
	Date    string `json:"date"`
	Content string `json:"content"`
}
