package email

import (
	"context"
	"fmt"
)

type Kind string

const (
	KindRegistration  Kind = "registration"
	KindPasswordReset Kind = "password_reset"
	KindContact       Kind = "contact"
)

// Notifier is what request handlers depend on. Payload must match kind:
// RegistrationData, PasswordResetData or ContactData.
type Notifier interface {
	Send(ctx context.Context, kind Kind, recipient string, payload any) error
}

type Dispatcher struct {
	transport Transport
	brand     string
	from      string
}

func NewDispatcher(t Transport, brand, from string) *Dispatcher {
	return &Dispatcher{transport: t, brand: brand, from: from}
}

func (d *Dispatcher) Send(ctx context.Context, kind Kind, recipient string, payload any) error {
	msg, err := d.build(kind, recipient, payload)
	if err != nil {
		return err
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s email: %w", kind, err)
	}
	return nil
}

func (d *Dispatcher) build(kind Kind, recipient string, payload any) (Message, error) {
	msg := Message{
		From: fmt.Sprintf("%q <%s>", d.brand, d.from),
		To:   recipient,
	}

	var err error
	switch p := payload.(type) {
	case RegistrationData:
		if kind != KindRegistration {
			break
		}
		p.Brand = d.brand
		msg.Subject = "Welcome to " + d.brand
		msg.HTML, err = render(registrationTmpl, p)
		return msg, err
	case PasswordResetData:
		if kind != KindPasswordReset {
			break
		}
		p.Brand = d.brand
		msg.Subject = "Password Reset"
		msg.HTML, err = render(passwordResetTmpl, p)
		return msg, err
	case ContactData:
		if kind != KindContact {
			break
		}
		// The shop sends on the visitor's behalf; their address goes in
		// Reply-To, never in From.
		msg.ReplyTo = p.Email
		msg.Subject = "Contact Form Submission from " + p.Name
		msg.HTML, err = render(contactTmpl, p)
		return msg, err
	}
	return Message{}, fmt.Errorf("payload %T does not match email kind %q", payload, kind)
}
