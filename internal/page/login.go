package page

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

var loginLocators = locator.MustRegistry("login",
	locator.Contains("loginBtn", "button", "Login"),
	locator.Text("logoutBtn", "button", "Logout"),
	locator.ByCSS("userBtn", "button[class='btn btn-secondary dropdown-toggle osim-user-profile']"),
)

// Login is the OSIM landing page shown to unauthenticated users.
type Login struct {
	*Base
	URL string
}

// NewLogin returns the login page for the OSIM instance at baseURL.
func NewLogin(d browser.Driver, baseURL string, logger *log.Logger) *Login {
	return &Login{Base: NewBase(d, loginLocators, PageTimeout, logger), URL: baseURL}
}

// Open navigates to the OSIM root.
func (p *Login) Open(ctx context.Context) error {
	return p.Driver.Navigate(ctx, p.URL)
}

// Login clicks the Login button. Credentials come from the browser's
// Kerberos ticket, so there is nothing to type.
func (p *Login) Login(ctx context.Context) error {
	btn, err := p.WaitVisible(ctx, "loginBtn")
	if err != nil {
		return err
	}
	p.Log.Info("logging in")
	return btn.Click(ctx)
}

// CheckLoggedIn opens the user menu and waits for the Logout entry.
func (p *Login) CheckLoggedIn(ctx context.Context) error {
	user, err := p.WaitVisible(ctx, "userBtn")
	if err != nil {
		return err
	}
	if err := user.Click(ctx); err != nil {
		return err
	}
	_, err = p.WaitVisible(ctx, "logoutBtn")
	return err
}

// CheckLoginButton waits for the Login button, which is what a logged-out
// session lands on.
func (p *Login) CheckLoginButton(ctx context.Context) error {
	_, err := p.WaitVisible(ctx, "loginBtn")
	return err
}
