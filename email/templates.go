package email

import (
	"bytes"
	"html/template"
)

var (
	registrationTmpl = template.Must(template.New("registration").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>Welcome to {{.Brand}}, {{.Username}}!</h2>
<p>Your account for <strong>{{.Email}}</strong> has been created.</p>
<p>You can now sign in and start shopping.</p>
</body></html>`))

	passwordResetTmpl = template.Must(template.New("password_reset").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>Password reset</h2>
<p>We received a request to reset your {{.Brand}} password.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>This link expires in {{.ExpiresInMinutes}} minutes. If you did not ask for a reset, ignore this email.</p>
</body></html>`))

	contactTmpl = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<h2>Contact form submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
</body></html>`))
)

type RegistrationData struct {
	Brand    string
	Username string
	Email    string
}

type PasswordResetData struct {
	Brand            string
	Link             string
	ExpiresInMinutes int
}

type ContactData struct {
	Name    string
	Email   string
	Message string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
