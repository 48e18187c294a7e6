package page

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

var flawCreateLocators = func() *locator.Registry {
	reg, err := flawDetailLocators.Extend("flaw create",
		locator.Contains("createNewFlawBtn", "button", "Create New Flaw"),
		locator.ByLinkText("createFlawLink", "Create Flaw"),
		locator.Text("comment#0Text", "span", " Comment#0"),
		locator.Contains("descriptionText", "span", "Description"),
		locator.Contains("statementText", "span", "Statement"),
		locator.Text("impactText", "span", "Impact"),
		locator.Text("sourceText", "span", "CVE Source"),
		locator.Text("titleText", "span", "Title"),
		locator.Text("componentsText", "span", "Components"),
		locator.Text("cveidText", "span", "CVE ID"),
		locator.Text("cweidText", "span", "CWE ID"),
		locator.Text("publicDateText", "span", "Public Date"),
	)
	if err != nil {
		panic(err)
	}
	return reg
}()

// MandatoryLabels are the field labels the create form must show.
var MandatoryLabels = []string{
	"titleText", "componentsText", "cveidText", "impactText", "sourceText", "publicDateText",
}

// FlawDraft is the content of a new flaw.
type FlawDraft struct {
	Title        string
	Component    string
	CVE          string
	ReportedDate string
	PublicDate   string
	Comment0     string
	Embargoed    bool

	CWE         string
	Description string
	Statement   string
}

// FlawCreate is the new-flaw form: the flaw form in create mode.
type FlawCreate struct {
	*FlawDetail
}

// NewFlawCreate returns the create form of the OSIM instance at baseURL.
func NewFlawCreate(d browser.Driver, baseURL string, logger *log.Logger) *FlawCreate {
	return &FlawCreate{FlawDetail: newFlawDetail(d, baseURL, flawCreateLocators, logger)}
}

// Open follows the navbar "Create Flaw" link.
func (p *FlawCreate) Open(ctx context.Context) error {
	return p.Click(ctx, Named("createFlawLink"))
}

// CheckMandatoryLabels waits for every mandatory field label.
func (p *FlawCreate) CheckMandatoryLabels(ctx context.Context) error {
	for _, name := range MandatoryLabels {
		if _, err := p.WaitVisible(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Fill writes draft into the form. Source and impact are switched to a
// valid non-default value; an embargoed draft ticks the embargo box
// instead of setting a public date.
func (p *FlawCreate) Fill(ctx context.Context, draft FlawDraft) error {
	fields := []struct{ name, value string }{
		{"title", draft.Title},
		{"component", draft.Component},
		{"cveid", draft.CVE},
		{"reportedDate", draft.ReportedDate},
	}
	for _, f := range fields {
		if err := p.SetInputField(ctx, f.name, f.value); err != nil {
			return err
		}
	}
	for _, sel := range []string{"source", "impact"} {
		if _, err := p.SetSelectValue(ctx, sel); err != nil {
			return err
		}
	}
	if draft.Embargoed {
		if err := p.ToggleEmbargoed(ctx); err != nil {
			return err
		}
	} else {
		public := draft.PublicDate
		if public == "" {
			public = draft.ReportedDate
		}
		if err := p.SetInputField(ctx, "publicDate", public); err != nil {
			return err
		}
	}
	if err := p.SetDocumentTextField(ctx, commentZero, draft.Comment0); err != nil {
		return err
	}
	if draft.CWE != "" {
		if err := p.SetInputField(ctx, "cweid", draft.CWE); err != nil {
			return err
		}
	}
	if draft.Description != "" {
		if err := p.SetDocumentTextField(ctx, "description", draft.Description); err != nil {
			return err
		}
	}
	if draft.Statement != "" {
		if err := p.SetDocumentTextField(ctx, "statement", draft.Statement); err != nil {
			return err
		}
	}
	return nil
}

// Submit clicks Create New Flaw.
func (p *FlawCreate) Submit(ctx context.Context) error {
	return p.Click(ctx, Named("createNewFlawBtn"))
}

// WaitCreated waits for the "Flaw created" toast.
func (p *FlawCreate) WaitCreated(ctx context.Context) error {
	return p.WaitMessage(ctx, "flawCreatedMsg")
}
