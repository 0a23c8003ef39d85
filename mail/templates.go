package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var (
	verificationTmpl = template.Must(template.New("verification").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; background-color: #000; color: #fff;">
  <h2 style="color: #fff; text-align: center;">Verify Your Email Address</h2>
  <p style="font-size: 16px; color: #ccc;">Dear User,</p>
  <p style="font-size: 16px; color: #ccc;">To complete your registration, please use the following verification code:</p>
  <div style="text-align: center; margin: 20px 0;">
    <span style="display: inline-block; font-size: 24px; font-weight: bold; color: #000; padding: 10px 20px; border: 1px solid #fff; border-radius: 5px; background-color: #fff;">{{.Code}}</span>
  </div>
  <p style="font-size: 16px; color: #ccc;">This code is valid for the next {{.Minutes}} minutes. Please do not share this code with anyone.</p>
  <p style="font-size: 16px; color: #ccc;">If you did not request this email, please ignore it.</p>
  <footer style="margin-top: 20px; text-align: center; font-size: 14px; color: #666;">
    <p>Thank you,<br>{{.AppName}} Team</p>
  </footer>
</div>`))

	resetTmpl = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; background-color: #000; color: #fff;">
  <h2 style="color: #fff; text-align: center;">Reset Your Password</h2>
  <p style="font-size: 16px; color: #ccc;">Dear User,</p>
  <p style="font-size: 16px; color: #ccc;">You requested to reset your password. Please click the button below to reset it:</p>
  <div style="text-align: center; margin: 20px 0;">
    <a href="{{.Link}}" style="display: inline-block; font-size: 16px; font-weight: bold; color: #000; text-decoration: none; padding: 12px 20px; border: 1px solid #fff; border-radius: 5px; background-color: #fff;">Reset Password</a>
  </div>
  <p style="font-size: 16px; color: #ccc;">If you did not request this, please ignore this email. This link will expire in {{.Minutes}} minutes.</p>
  <p style="font-size: 16px; color: #ccc;">If the button above does not work, copy and paste the following URL into your browser:</p>
  <p style="font-size: 16px; color: #fff; word-wrap: break-word;">{{.Link}}</p>
  <footer style="margin-top: 20px; text-align: center; font-size: 14px; color: #666;">
    <p>Thank you,<br>{{.AppName}} Team</p>
  </footer>
</div>`))

	reminderTmpl = template.Must(template.New("reminder").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <p>Dear {{.Name}},</p>
  <p>This is a reminder that your borrowed item was due on {{.Due}}. Please return it as soon as possible.</p>
  <p>Thank you!</p>
  <p>Regards,<br>{{.AppName}} Team</p>
</div>`))
)

// VerificationData fills the one-time code email.
type VerificationData struct {
	AppName  string
	Code     int
	ValidFor time.Duration
}

// ResetData fills the password recovery email.
type ResetData struct {
	AppName  string
	Link     string
	ValidFor time.Duration
}

// ReminderData fills the overdue return reminder.
type ReminderData struct {
	AppName string
	Name    string
	DueDate time.Time
}

// RenderVerificationCode returns the subject and HTML body.
func RenderVerificationCode(d VerificationData) (string, string, error) {
	body, err := render(verificationTmpl, struct {
		AppName string
		Code    int
		Minutes int
	}{d.AppName, d.Code, minutes(d.ValidFor)})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("Verification code (%s)", d.AppName), body, nil
}

func RenderPasswordReset(d ResetData) (string, string, error) {
	body, err := render(resetTmpl, struct {
		AppName string
		Link    string
		Minutes int
	}{d.AppName, d.Link, minutes(d.ValidFor)})
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%s Password Recovery", d.AppName), body, nil
}

func RenderOverdueReminder(d ReminderData) (string, string, error) {
	body, err := render(reminderTmpl, struct {
		AppName string
		Name    string
		Due     string
	}{d.AppName, d.Name, d.DueDate.UTC().Format("January 2, 2006")})
	if err != nil {
		return "", "", err
	}
	return "Return reminder", body, nil
}

func render(t *template.Template, data any) (string, error) {
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute) / time.Minute)
}
