package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending notification emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. An empty fromEmail returns a
// disabled service whose send methods are no-ops.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s != nil && s.enabled
}

// SendRequestReceivedEmail confirms to the requester that their onboarding
// request is waiting for review.
func (s *EmailService) SendRequestReceivedEmail(ctx context.Context, toEmail, toName, familyName string) error {
	subject := "Your FamilyTree request is being reviewed"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body>
	<p>Hi %s,</p>
	<p>We received your request to create the family workspace <strong>%s</strong>.</p>
	<p>A platform administrator will review it shortly. You will get another
	email once your request has been approved or rejected.</p>
	<p><strong>Important:</strong> keep the family password shown after your
	request safe. It is not stored anywhere in plain text and cannot be shown
	again without your account password.</p>
	<p>This is an automated email from FamilyTree. Please do not reply.</p>
</body>
</html>
`, toName, familyName)

	textBody := fmt.Sprintf(`Hi %s,

We received your request to create the family workspace %q.

A platform administrator will review it shortly. You will get another email
once your request has been approved or rejected.

Important: keep the family password shown after your request safe. It is not
stored anywhere in plain text and cannot be shown again without your account
password.

---
This is an automated email from FamilyTree. Please do not reply.
`, toName, familyName)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendRequestApprovedEmail tells the requester their workspace is ready.
func (s *EmailService) SendRequestApprovedEmail(ctx context.Context, toEmail, toName, familyName string) error {
	subject := "Your FamilyTree workspace is ready"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body>
	<p>Hi %s,</p>
	<p>Your request has been approved and the family workspace
	<strong>%s</strong> has been created.</p>
	<p>You can now log in as its administrator:</p>
	<p><a href="%s/login">Log in to FamilyTree</a></p>
	<p>Share the family password you saved at request time with family members
	so they can join the workspace.</p>
	<p>This is an automated email from FamilyTree. Please do not reply.</p>
</body>
</html>
`, toName, familyName, s.appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Your request has been approved and the family workspace %q has been created.

You can now log in as its administrator: %s/login

Share the family password you saved at request time with family members so
they can join the workspace.

---
This is an automated email from FamilyTree. Please do not reply.
`, toName, familyName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendRequestRejectedEmail tells the requester their request was declined.
func (s *EmailService) SendRequestRejectedEmail(ctx context.Context, toEmail, toName, reason string) error {
	subject := "Your FamilyTree request was declined"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body>
	<p>Hi %s,</p>
	<p>Unfortunately your request to create a family workspace was declined.</p>
	<p>Reason: %s</p>
	<p>You are welcome to submit a new request with different details.</p>
	<p>This is an automated email from FamilyTree. Please do not reply.</p>
</body>
</html>
`, toName, reason)

	textBody := fmt.Sprintf(`Hi %s,

Unfortunately your request to create a family workspace was declined.

Reason: %s

You are welcome to submit a new request with different details.

---
This is an automated email from FamilyTree. Please do not reply.
`, toName, reason)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	if !s.IsEnabled() {
		log.Printf("Skipping email send (service disabled): %s to %s", subject, toEmail)
		return nil
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
