// Package notify delivers out-of-band alerts for vale payments and low
// stock. Email goes through SES, SMS through SNS; either channel can be
// disabled independently.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"lua-assistant/internal/common/config"
	"lua-assistant/internal/common/logger"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// Interfaces for mocking the AWS clients.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Service struct {
	cfg config.NotificationConfig
	ses SESService
	sns SNSService
	log logger.Logger
}

// New builds a notification service backed by AWS. Use NewWithClients in
// tests.
func New(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewWithClients(cfg, ses.NewFromConfig(awsCfg), sns.NewFromConfig(awsCfg), log), nil
}

func NewWithClients(cfg config.NotificationConfig, sesClient SESService, snsClient SNSService, log logger.Logger) *Service {
	return &Service{
		cfg: cfg,
		ses: sesClient,
		sns: snsClient,
		log: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// ValePaid alerts the configured contacts that a vale left the cash ledger.
func (s *Service) ValePaid(ctx context.Context, employeeName string, amount float64) error {
	subject := "Vale pago - " + employeeName
	body := fmt.Sprintf("O vale de %s no valor de R$ %.2f foi pago e debitado do caixa.", employeeName, amount)
	return s.deliver(ctx, subject, body)
}

// LowStock alerts the configured contacts that an item fell to or below its
// minimum quantity.
func (s *Service) LowStock(ctx context.Context, itemName string, quantity, minQuantity int) error {
	subject := "Estoque baixo - " + itemName
	body := fmt.Sprintf("O item %s está com %d unidades (mínimo: %d). Considere repor o estoque.",
		itemName, quantity, minQuantity)
	return s.deliver(ctx, subject, body)
}

func (s *Service) deliver(ctx context.Context, subject, body string) error {
	var sent bool

	if s.cfg.Email.Enabled && s.cfg.Email.ToEmail != "" {
		if err := s.sendEmail(ctx, subject, body); err != nil {
			return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
		}
		sent = true
	}
	if s.cfg.SMS.Enabled && s.cfg.SMS.ToPhone != "" {
		if err := s.sendSMS(ctx, body); err != nil {
			return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
		}
		sent = true
	}

	if !sent {
		s.log.Debug("no notification channel enabled", map[string]interface{}{
			"subject": subject,
		})
	}
	return nil
}

func (s *Service) sendEmail(ctx context.Context, subject, body string) error {
	_, err := s.ses.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{s.cfg.Email.ToEmail},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(s.cfg.Email.FromEmail),
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, message string) error {
	_, err := s.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(s.cfg.SMS.ToPhone),
		Message:     aws.String(message),
	})
	return err
}
