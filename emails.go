package accounts

import "fmt"

// Outbound message builders. Dispatch is always best-effort: the
// triggering operation enqueues and moves on.

func verificationEmail(to, firstName, link string) Message {
	return Message{
		To:         to,
		Subject:    "Welcome email",
		Header:     fmt.Sprintf("Hi, %s!", firstName),
		Body:       "We are excited to get you started. First, you have to verify your account. Just click on the link below",
		ActionText: "Verify Email",
		ActionLink: link,
	}
}

func passwordResetEmail(to, link string) Message {
	return Message{
		To:         to,
		Subject:    "Reset Password",
		Header:     "Hi!",
		Body:       "Please click on the link below to reset your password",
		ActionText: "Reset password",
		ActionLink: link,
	}
}

// credentialsEmail carries the generated plaintext password for accounts
// provisioned through quick checkout or by an admin. The recipient is
// expected to log in and change it on first entry.
func credentialsEmail(to, firstName, password, loginLink string) Message {
	return Message{
		To:      to,
		Subject: "Welcome aboard",
		Header:  fmt.Sprintf("Hi, %s!", firstName),
		Body: fmt.Sprintf(
			"We are excited to get you started. Below are your login details\nemail: %s\npassword: %s\nPlease login to continue",
			to, password,
		),
		ActionText: "Login",
		ActionLink: loginLink,
	}
}

func (s *Service) resetLink(token, accountID string) string {
	return fmt.Sprintf("%s/auth/reset-password?emailToken=%s&id=%s", s.baseURL, token, accountID)
}

func (s *Service) verificationLink(token, accountID string) string {
	return fmt.Sprintf("%s/api/v1/accounts/verify?emailToken=%s&id=%s", s.baseURL, token, accountID)
}

func (s *Service) loginLink() string {
	return s.baseURL + "/login"
}
