package managers

import (
	"context"
	"fmt"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/matcornic/hermes/v2"
	log "github.com/sirupsen/logrus"

	"scribe-server/internal/config"
)

// MailMgr is an interface that outlines the contract for email management.
// It includes methods for sending verification and password reset emails.
type MailMgr interface {
	SendVerificationMail(email, name, token string) error
	SendPasswordResetMail(email, name, token string) error
}

// MailManager is a concrete implementation of the MailMgr interface.
// It uses the Mailgun service for sending emails and the Hermes package for formatting emails.
type MailManager struct {
	Hermes     *hermes.Hermes
	Mailgun    *mailgun.MailgunImpl
	production bool
	publicURL  string
}

var from = "Scribe <noreply@mail.scribe-server.dev>"

// SendVerificationMail sends a verification email containing a one-time link
// to confirm the recipient's address. The email content is formatted using
// the Hermes package and sent using the Mailgun service.
func (mm *MailManager) SendVerificationMail(email, name, token string) error {
	if !mm.production {
		log.Info("Skipping verification mail in development mode")
		return nil
	}

	if name == "" {
		name = email
	}

	verifyLink := fmt.Sprintf("%s/auth/verify?token=%s", mm.publicURL, token)
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"Welcome to Scribe! We're very excited to have you on board.",
				"Before you can start publishing, we need to confirm your email address.",
			},
			Outros: []string{
				"The link is valid for 24 hours. If you didn't create an account, you can safely ignore this email.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "To verify your email address, please click the button below:",
					Button: hermes.Button{
						Text: "Verify email",
						Link: verifyLink,
					},
				},
			},
		},
	}

	return mm.send(mailBody, "Verify your email address", email, "verification")
}

// SendPasswordResetMail sends a password reset email containing a short-lived
// link to choose a new password.
func (mm *MailManager) SendPasswordResetMail(email, name, token string) error {
	if !mm.production {
		log.Info("Skipping password reset mail in development mode")
		return nil
	}

	if name == "" {
		name = email
	}

	resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s", mm.publicURL, token)
	mailBody := hermes.Email{
		Body: hermes.Body{
			Name: name,
			Intros: []string{
				"We received a request to reset the password of your Scribe account.",
			},
			Outros: []string{
				"The link is valid for one hour. If you didn't request a password reset, you can safely ignore this email.",
			},
			Actions: []hermes.Action{
				{
					Instructions: "To choose a new password, please click the button below:",
					Button: hermes.Button{
						Text: "Reset password",
						Link: resetLink,
					},
				},
			},
		},
	}

	return mm.send(mailBody, "Reset your password", email, "password reset")
}

func (mm *MailManager) send(mailBody hermes.Email, subject, email, kind string) error {
	emailBody, err := mm.Hermes.GenerateHTML(mailBody)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(2*time.Second))
	defer cancel()

	message := mm.Mailgun.NewMessage(from, subject, "", email)
	message.SetHtml(emailBody)
	_, _, err = mm.Mailgun.Send(ctx, message)
	if err != nil {
		log.Warning("Error sending " + kind + " mail: " + err.Error())
		return err
	}
	log.Debug(kind + " mail sent to " + email)

	return nil
}

// NewMailManager initializes a new MailManager instance with configured Mailgun and Hermes settings.
// It also checks the runtime environment to determine if emails should be sent.
func NewMailManager(cfg *config.Config) MailMgr {
	log.Info("Initializing mail manager")

	if !cfg.IsProduction() {
		log.Println("Running in development mode, email will not be sent to users")
	}

	mailgunInstance := mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)
	mailgunInstance.SetAPIBase(mailgun.APIBaseEU)

	mm := &MailManager{
		Hermes: &hermes.Hermes{
			Theme:         new(hermes.Default),
			TextDirection: hermes.TDLeftToRight,
			Product: hermes.Product{
				Name:        "Scribe",
				Link:        cfg.PublicURL,
				Copyright:   "© Scribe",
				TroubleText: "If you’re having trouble with the button '{ACTION}', copy and paste the URL below into your web browser.",
			},
		},
		Mailgun:    mailgunInstance,
		production: cfg.IsProduction(),
		publicURL:  cfg.PublicURL,
	}
	log.Info("Initialized mail manager")
	return mm
}
