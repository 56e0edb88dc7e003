package sqsmq

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/zlnvch/daybook/mq"
)

type SQSMessageQueue struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSMessageQueue resolves queueName against the queues visible to
// the client. Queue URLs end in "/<name>", so a suffix match is exact.
func NewSQSMessageQueue(ctx context.Context, devMode bool, sqsEndpoint string, queueName string) (*SQSMessageQueue, error) {
	client, err := newSQSClient(context.Background(), devMode, sqsEndpoint)
	if err != nil {
		return nil, err
	}

	queues, err := getQueues(client, ctx)
	if err != nil {
		return nil, err
	}

	for _, q := range queues {
		if strings.HasSuffix(q, "/"+queueName) {
			return &SQSMessageQueue{client, q}, nil
		}
	}
	return nil, fmt.Errorf("given queue name '%s' not found in SQS", queueName)
}

func (sqsmq *SQSMessageQueue) Send(ctx context.Context, body string) error {
	_, err := sqsmq.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(sqsmq.queueURL),
		MessageBody: aws.String(body),
	})
	return err
}

func (sqsmq *SQSMessageQueue) Receive(ctx context.Context, visibilityTimeout int32) (*mq.Message, error) {
	resp, err := sqsmq.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(sqsmq.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     20, // long polling
		VisibilityTimeout:   visibilityTimeout,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Messages) == 0 {
		return nil, nil // no message this poll
	}

	msg := resp.Messages[0]
	return &mq.Message{
		Id:   aws.ToString(msg.ReceiptHandle),
		Body: aws.ToString(msg.Body),
	}, nil
}

func (sqsmq *SQSMessageQueue) Delete(ctx context.Context, msg *mq.Message) error {
	_, err := sqsmq.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(sqsmq.queueURL),
		ReceiptHandle: aws.String(msg.Id),
	})
	return err
}
