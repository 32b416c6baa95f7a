package report

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// ErrNoRecipients is returned when a summary has nowhere to go.
var ErrNoRecipients = errors.New("no report recipients configured")

// SendEmailAPI is the slice of the SES v2 client the mailer calls.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Mailer sends report summaries through Amazon SES.
type Mailer struct {
	client    SendEmailAPI
	fromEmail string
	fromName  string
	enabled   bool
}

// NewMailer loads AWS credentials for region. With an empty fromEmail the
// mailer is disabled and sending is a logged no-op.
func NewMailer(ctx context.Context, region, fromEmail, fromName string) (*Mailer, error) {
	if fromEmail == "" {
		log.Println("report mailer disabled: SES_FROM_EMAIL not configured")
		return &Mailer{}, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	log.Printf("report mailer enabled: from=%s, region=%s", fromEmail, region)
	return NewMailerWithClient(sesv2.NewFromConfig(cfg), fromEmail, fromName), nil
}

// NewMailerWithClient builds an enabled mailer around an existing client.
func NewMailerWithClient(client SendEmailAPI, fromEmail, fromName string) *Mailer {
	return &Mailer{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
		enabled:   true,
	}
}

// Enabled reports whether mail actually leaves the process.
func (m *Mailer) Enabled() bool {
	return m.enabled
}

// Send mails the plain-text summary to every recipient in one message.
func (m *Mailer) Send(ctx context.Context, recipients []string, s Summary) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	subject := s.Subject()
	if !m.enabled {
		log.Printf("skipping report mail (mailer disabled): %q to %v", subject, recipients)
		return nil
	}

	from := m.fromEmail
	if m.fromName != "" {
		from = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(s.Text()), Charset: aws.String("UTF-8")},
				},
			},
		},
	}
	out, err := m.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("send report to %v: %w", recipients, err)
	}
	log.Printf("report mailed: subject=%q message=%s", subject, aws.ToString(out.MessageId))
	return nil
}
