package pages

import "fmt"

const (
	loginUsername = "#user-name"
	loginPassword = "#password"
	loginButton   = "#login-button"
	formError     = `h3[data-test="error"]`
)

// Login error messages shown by the shop.
const (
	ErrTextInvalidCredentials = "Epic sadface: Username and password do not match any user in this service"
	ErrTextUsernameRequired   = "Epic sadface: Username is required"
	ErrTextLockedOut          = "Epic sadface: Sorry, this user has been locked out."
)

type LoginPage struct{ Page }

func NewLoginPage(p Page) *LoginPage { return &LoginPage{p} }

func (l *LoginPage) EnterCredentials(username, password string) error {
	if err := l.fill(loginUsername, username); err != nil {
		l.log.Error().Err(err).Msg("Failed to enter username on the login page")
		return fmt.Errorf("enter username: %w", err)
	}
	if err := l.fill(loginPassword, password); err != nil {
		l.log.Error().Err(err).Msg("Failed to enter password on the login page")
		return fmt.Errorf("enter password: %w", err)
	}
	return nil
}

func (l *LoginPage) Submit() error {
	if err := l.click(loginButton); err != nil {
		l.log.Error().Err(err).Msg("Failed to click the login button")
		return fmt.Errorf("submit login: %w", err)
	}
	return nil
}

func (l *LoginPage) FormError() (string, error) {
	msg, err := l.text(formError)
	if err != nil {
		l.log.Info().Err(err).Msg("No login form error shown")
		return "", fmt.Errorf("login form error: %w", err)
	}
	return msg, nil
}

// LoginErrorText maps an error kind used in feature files to the message
// the shop shows for it.
func LoginErrorText(kind string) (string, error) {
	switch kind {
	case "invalid":
		return ErrTextInvalidCredentials, nil
	case "empty":
		return ErrTextUsernameRequired, nil
	case "locked out":
		return ErrTextLockedOut, nil
	default:
		return "", fmt.Errorf("unknown login error kind %q", kind)
	}
}
