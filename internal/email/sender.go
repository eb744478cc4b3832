package email

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Sender отправляет транзакционные письма через SES.
// Это side-channel: вызывающий код не должен ждать его для корректности.
type Sender struct {
	client *sesv2.Client
	from   string
}

// NewSender создаёт отправителя с AWS-конфигурацией из окружения.
func NewSender(ctx context.Context, from string) (*Sender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("email: не удалось загрузить AWS конфигурацию: %w", err)
	}

	return &Sender{
		client: sesv2.NewFromConfig(cfg),
		from:   from,
	}, nil
}

// Send отправляет одно HTML-письмо.
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody string) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &s.from,
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("email: отправка на %s не удалась: %w", to, err)
	}
	return nil
}
