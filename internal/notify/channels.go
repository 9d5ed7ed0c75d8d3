// internal/notify/channels.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	awsclient "maintenance-dispatch/internal/common/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/redis/go-redis/v9"
)

// EmailSender delivers one email. Implemented over SES.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one SMS. Implemented over SNS.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) error
}

// RealtimePublisher pushes an event onto the company's realtime channel.
type RealtimePublisher interface {
	Publish(ctx context.Context, companyID string, payload interface{}) error
}

type SESSender struct {
	client    *awsclient.SESClient
	fromEmail string
}

func NewSESSender(client *awsclient.SESClient, fromEmail string) *SESSender {
	return &SESSender{client: client, fromEmail: fromEmail}
}

func (s *SESSender) SendEmail(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
				Html: &sestypes.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.fromEmail),
	})
	return err
}

type SNSSender struct {
	client *awsclient.SNSClient
}

func NewSNSSender(client *awsclient.SNSClient) *SNSSender {
	return &SNSSender{client: client}
}

func (s *SNSSender) SendSMS(ctx context.Context, phone, message string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
	})
	return err
}

// RedisRealtime publishes on a per-company pub/sub channel; subscribers
// (the dashboard gateway) fan events out to connected clients.
type RedisRealtime struct {
	client *redis.Client
	prefix string
}

func NewRedisRealtime(client *redis.Client, prefix string) *RedisRealtime {
	return &RedisRealtime{client: client, prefix: prefix}
}

func (r *RedisRealtime) Publish(ctx context.Context, companyID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	channel := fmt.Sprintf("%s:company:%s", r.prefix, companyID)
	return r.client.Publish(ctx, channel, data).Err()
}
