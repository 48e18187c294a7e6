package page

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

var settingsLocators = locator.MustRegistry("settings",
	locator.Text("jiraApiKeyText", "span", "JIRA API Key"),
	locator.Text("bugzillaApiKeyText", "span", "Bugzilla API Key"),
	locator.Contains("saveBtn", "button", "Save"),
)

// Settings is the per-user settings page holding integration API keys.
type Settings struct {
	*Base
	URL string
}

// NewSettings returns the settings page of the OSIM instance at baseURL.
func NewSettings(d browser.Driver, baseURL string, logger *log.Logger) *Settings {
	return &Settings{Base: NewBase(d, settingsLocators, PageTimeout, logger), URL: baseURL}
}

// Open navigates to the settings page.
func (p *Settings) Open(ctx context.Context) error {
	if err := p.Driver.Navigate(ctx, joinURL(p.URL, "settings")); err != nil {
		return err
	}
	_, err := p.WaitVisible(ctx, "jiraApiKeyText")
	return err
}

// SetAPIKey fills the key input found below the label for kind, which is
// "bugzilla" or "jira".
func (p *Settings) SetAPIKey(ctx context.Context, kind, value string) error {
	switch kind {
	case "bugzilla", "jira":
	default:
		return fmt.Errorf("unknown api key kind %q", kind)
	}
	label, err := p.Element(ctx, kind+"ApiKeyText")
	if err != nil {
		return err
	}
	input, err := browser.Relative(ctx, p.Driver, "input", label, browser.Below)
	if err != nil {
		return err
	}
	p.Log.Debug("set api key", "kind", kind)
	return p.SetText(ctx, Handle(input), value)
}

// Save submits the settings form when the page has one; keys are
// otherwise stored as they are typed.
func (p *Settings) Save(ctx context.Context) error {
	if !p.Has(ctx, "saveBtn") {
		return nil
	}
	return p.ClickJS(ctx, Named("saveBtn"))
}
