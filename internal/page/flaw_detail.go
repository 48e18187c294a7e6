package page

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/RedHatProductSecurity/osim/internal/browser"
	"github.com/RedHatProductSecurity/osim/internal/locator"
)

// FieldKind distinguishes the two editable widgets of the flaw form.
type FieldKind int

const (
	TextField FieldKind = iota
	DateField
)

// FieldBundle names the locators making up one editable flaw field.
type FieldBundle struct {
	EditBtn string
	Input   string
	Value   string
	Label   string
	Kind    FieldKind
}

func textField(name string) FieldBundle {
	return FieldBundle{EditBtn: name + "EditBtn", Input: name + "Input", Value: name + "Value", Label: name + "Text"}
}

func dateField(name string) FieldBundle {
	b := textField(name)
	b.Kind = DateField
	return b
}

// FlawFields are the editable fields of the flaw form. "owner" is the
// assignee field under the name the search facets use.
var FlawFields = map[string]FieldBundle{
	"title":        textField("title"),
	"component":    textField("component"),
	"cveid":        textField("cveid"),
	"cweid":        textField("cweid"),
	"assignee":     textField("assignee"),
	"owner":        textField("assignee"),
	"teamid":       textField("teamid"),
	"reportedDate": dateField("reportedDate"),
	"publicDate":   dateField("publicDate"),
}

// FlawDetail is the flaw view/edit form.
type FlawDetail struct {
	*Base
	URL string
}

// NewFlawDetail returns the flaw form of the OSIM instance at baseURL.
func NewFlawDetail(d browser.Driver, baseURL string, logger *log.Logger) *FlawDetail {
	return newFlawDetail(d, baseURL, flawDetailLocators, logger)
}

func newFlawDetail(d browser.Driver, baseURL string, reg *locator.Registry, logger *log.Logger) *FlawDetail {
	return &FlawDetail{Base: NewBase(d, reg, PageTimeout, logger), URL: baseURL}
}

// Open navigates to the flaw with the given CVE ID or UUID and waits for
// the form to render.
func (p *FlawDetail) Open(ctx context.Context, id string) error {
	if err := p.Driver.Navigate(ctx, joinURL(p.URL, "flaws/"+id)); err != nil {
		return err
	}
	return p.WaitLoaded(ctx)
}

// WaitLoaded waits for the comment button, the last widget the form renders.
func (p *FlawDetail) WaitLoaded(ctx context.Context) error {
	_, err := p.WaitVisible(ctx, "addCommentBtn")
	return err
}

func field(name string) (FieldBundle, error) {
	b, ok := FlawFields[name]
	if !ok {
		return FieldBundle{}, fmt.Errorf("unknown flaw field %q", name)
	}
	return b, nil
}

// SetInputField opens the field editor and replaces its value.
func (p *FlawDetail) SetInputField(ctx context.Context, name, value string) error {
	f, err := field(name)
	if err != nil {
		return err
	}
	if err := p.ClickJS(ctx, Named(f.EditBtn)); err != nil {
		return err
	}
	input, err := p.Element(ctx, f.Input)
	if err != nil {
		return err
	}
	p.Log.Debug("set field", "field", name, "value", value)
	return p.SetText(ctx, Handle(input), value)
}

// GetInputValue returns the displayed value of the field.
func (p *FlawDetail) GetInputValue(ctx context.Context, name string) (string, error) {
	f, err := field(name)
	if err != nil {
		return "", err
	}
	el, err := p.Element(ctx, f.Value)
	if err != nil {
		return "", err
	}
	if err := browser.ScrollIntoView(ctx, el); err != nil {
		return "", err
	}
	return browser.Text(ctx, el)
}

// ClearInputField opens the field editor and erases its content with
// ctrl+a, backspace so the form registers the edit.
func (p *FlawDetail) ClearInputField(ctx context.Context, name string) error {
	f, err := field(name)
	if err != nil {
		return err
	}
	if err := p.Click(ctx, Named(f.EditBtn)); err != nil {
		return err
	}
	input, err := p.Element(ctx, f.Input)
	if err != nil {
		return err
	}
	return input.SelectAllAndDelete(ctx)
}

// ValueExists waits until a field value containing value is shown.
func (p *FlawDetail) ValueExists(ctx context.Context, value string) error {
	loc := locator.ByXPath("value "+value, "//span[contains(text(), "+locator.Literal(value)+")]")
	_, err := browser.WaitFind(ctx, p.Driver, loc, p.Timeout)
	return err
}

// OpenDocumentTextFields expands the document text section when collapsed.
func (p *FlawDetail) OpenDocumentTextFields(ctx context.Context) error {
	if !p.Has(ctx, "documentTextFieldsDropDownBtn") {
		return nil
	}
	return p.Click(ctx, Named("documentTextFieldsDropDownBtn"))
}

const commentZero = "comment#0"

// documentTextArea finds the textarea next to the field's label, first
// revealing it through its "Add ..." button when the field is empty.
func (p *FlawDetail) documentTextArea(ctx context.Context, name string, reveal bool) (browser.Element, bool, error) {
	if name != commentZero && p.Has(ctx, name+"Btn") {
		if !reveal {
			return nil, false, nil
		}
		btn, err := p.Element(ctx, name+"Btn")
		if err != nil {
			return nil, false, err
		}
		if err := browser.ScrollIntoView(ctx, btn); err != nil {
			return nil, false, err
		}
		if err := p.withStickyBarsHidden(ctx, func() error { return p.Click(ctx, Handle(btn)) }); err != nil {
			return nil, false, err
		}
	}
	label, err := p.Element(ctx, name+"Text")
	if err != nil {
		return nil, false, err
	}
	area, err := browser.Relative(ctx, p.Driver, "textarea", label, browser.Near)
	if err != nil {
		return nil, false, err
	}
	if err := browser.ScrollIntoView(ctx, label); err != nil {
		return nil, false, err
	}
	return area, true, nil
}

// SetDocumentTextField writes a document text field (description,
// statement, mitigation, comment#0). An empty value erases the field.
func (p *FlawDetail) SetDocumentTextField(ctx context.Context, name, value string) error {
	area, _, err := p.documentTextArea(ctx, name, true)
	if err != nil {
		return err
	}
	if value == "" {
		return area.SelectAllAndDelete(ctx)
	}
	if err := browser.ClearJS(ctx, area); err != nil {
		return err
	}
	return area.SendKeys(ctx, value)
}

// GetDocumentTextField reads a document text field. A field still showing
// its "Add ..." button is empty.
func (p *FlawDetail) GetDocumentTextField(ctx context.Context, name string) (string, error) {
	area, ok, err := p.documentTextArea(ctx, name, false)
	if err != nil || !ok {
		return "", err
	}
	return browser.Value(ctx, area)
}

// GetSelectValue returns the option values of the field's select and the
// currently selected one.
func (p *FlawDetail) GetSelectValue(ctx context.Context, name string) ([]string, string, error) {
	sel, err := p.Element(ctx, name+"Select")
	if err != nil {
		return nil, "", err
	}
	opts, err := browser.SelectOptions(ctx, sel)
	if err != nil {
		return nil, "", err
	}
	values := make([]string, 0, len(opts))
	current := ""
	for _, o := range opts {
		values = append(values, o.Value)
		if o.Selected {
			current = o.Value
		}
	}
	return values, current, nil
}

// ChooseSelectValue picks the value SetSelectValue switches to: the last
// candidate that is neither the current value nor the empty sentinel. It
// returns current when no other candidate exists.
func ChooseSelectValue(candidates []string, current string) string {
	for i := len(candidates) - 1; i >= 0; i-- {
		if c := candidates[i]; c != "" && c != current {
			return c
		}
	}
	return current
}

// SetSelectValue switches the field's select to a different value and
// returns it. Source candidates come from AllowedSources because the
// select only lists the sources already in use.
func (p *FlawDetail) SetSelectValue(ctx context.Context, name string) (string, error) {
	values, current, err := p.GetSelectValue(ctx, name)
	if err != nil {
		return "", err
	}
	if name == "source" {
		values = AllowedSources
	}
	chosen := ChooseSelectValue(values, current)
	if chosen == current {
		return current, nil
	}
	sel, err := p.Element(ctx, name+"Select")
	if err != nil {
		return "", err
	}
	p.Log.Debug("select", "field", name, "from", current, "to", chosen)
	return chosen, browser.SelectByValue(ctx, sel, chosen)
}

// SaveChanges saves the form and waits for the confirmation toast.
func (p *FlawDetail) SaveChanges(ctx context.Context) error {
	if err := p.Click(ctx, Named("saveBtn")); err != nil {
		return err
	}
	return p.WaitMessage(ctx, "flawSavedMsg")
}

// ClickSave saves the form without waiting for the outcome, for steps that
// expect a validation error instead.
func (p *FlawDetail) ClickSave(ctx context.Context) error {
	return p.Click(ctx, Named("saveBtn"))
}

// Embargoed reports the state of the embargo checkbox.
func (p *FlawDetail) Embargoed(ctx context.Context) (bool, error) {
	if _, err := p.Element(ctx, "embargeodCheckBox"); err != nil {
		return false, err
	}
	return p.IsCheckboxSelected(ctx, "embargeodCheckBox")
}

// ToggleEmbargoed flips the embargo checkbox.
func (p *FlawDetail) ToggleEmbargoed(ctx context.Context) error {
	return p.Click(ctx, Named("embargeodCheckBox"))
}

// AddPublicComment writes a public comment and submits it.
func (p *FlawDetail) AddPublicComment(ctx context.Context, text string) error {
	if _, err := p.WaitVisible(ctx, "addCommentBtn"); err != nil {
		return err
	}
	if err := p.Click(ctx, Named("addCommentBtn")); err != nil {
		return err
	}
	label, err := p.Element(ctx, "newCommentText")
	if err != nil {
		return err
	}
	box, err := browser.Relative(ctx, p.Driver, "div", label, browser.Above)
	if err != nil {
		return err
	}
	area, err := browser.Relative(ctx, p.Driver, "textarea", box, browser.Below)
	if err != nil {
		return err
	}
	if err := area.SendKeys(ctx, text); err != nil {
		return err
	}
	return p.Click(ctx, Named("addCommentBtn"))
}

// CommentExists waits for a comment with exactly text to be shown.
func (p *FlawDetail) CommentExists(ctx context.Context, text string) error {
	loc := p.Registry.MustLookup("commentText").Format(locator.Literal(text))
	_, err := browser.WaitVisible(ctx, p.Driver, loc, p.Timeout)
	return err
}

func (p *FlawDetail) labelCount(ctx context.Context, name string) (int, error) {
	el, err := p.Element(ctx, name)
	if err != nil {
		return 0, err
	}
	txt, err := browser.Text(ctx, el)
	if err != nil {
		return 0, err
	}
	return countFromLabel(txt)
}

// OpenAcknowledgments expands the acknowledgment list when it has entries.
// The first "me-2" toggle belongs to references when those exist, so with
// no references the acknowledgment toggle is the first one.
func (p *FlawDetail) OpenAcknowledgments(ctx context.Context) error {
	acks, err := p.labelCount(ctx, "acknowledgmentCountLabel")
	if err != nil || acks == 0 {
		return err
	}
	refs, err := p.labelCount(ctx, "referenceCountLabel")
	if err != nil {
		return err
	}
	if refs > 0 {
		return p.ClickJS(ctx, Named("acknowledgmentsDropDownBtn"))
	}
	return p.ClickJS(ctx, Named("referenceDropdownBtn"))
}

// Acknowledgment renders an acknowledgment the way the list shows it.
func Acknowledgment(name, affiliation string) string {
	return name + " from " + affiliation
}

// AddAcknowledgment creates an acknowledgment and returns its rendering.
func (p *FlawDetail) AddAcknowledgment(ctx context.Context, name, affiliation string) (string, error) {
	if err := p.ClickJS(ctx, Named("addAcknowledgmentBtn")); err != nil {
		return "", err
	}
	left, err := p.Element(ctx, "addAcknowledgmentInputLeft")
	if err != nil {
		return "", err
	}
	if err := browser.ScrollIntoView(ctx, left); err != nil {
		return "", err
	}
	if err := p.SetText(ctx, Handle(left), name); err != nil {
		return "", err
	}
	if err := p.SetText(ctx, Named("addAcknowledgmentInputRight"), affiliation); err != nil {
		return "", err
	}
	if err := p.ClickJS(ctx, Named("saveAcknowledgmentBtn")); err != nil {
		return "", err
	}
	return Acknowledgment(name, affiliation), p.WaitMessage(ctx, "acknowledgmentSavedMsg")
}

// EditFirstAcknowledgment rewrites the first acknowledgment.
func (p *FlawDetail) EditFirstAcknowledgment(ctx context.Context, name, affiliation string) (string, error) {
	if err := p.Click(ctx, Named("firstAcknowledgmentEditBtn")); err != nil {
		return "", err
	}
	if err := p.SetText(ctx, Named("firstAcknowledgmentEditInputLeft"), name); err != nil {
		return "", err
	}
	if err := p.SetText(ctx, Named("firstAcknowledgmentEditInputRight"), affiliation); err != nil {
		return "", err
	}
	if err := p.Click(ctx, Named("firstAcknowledgmentEditBtn")); err != nil {
		return "", err
	}
	if err := p.ClickJS(ctx, Named("saveAcknowledgmentBtn")); err != nil {
		return "", err
	}
	return Acknowledgment(name, affiliation), p.WaitMessage(ctx, "acknowledgmentUpdatedMsg")
}

// DeleteFirstAcknowledgment removes the first acknowledgment and returns
// its rendering.
func (p *FlawDetail) DeleteFirstAcknowledgment(ctx context.Context) (string, error) {
	el, err := p.Element(ctx, "firstAcknowledgmentValue")
	if err != nil {
		return "", err
	}
	if err := browser.ScrollIntoView(ctx, el); err != nil {
		return "", err
	}
	removed, err := browser.Text(ctx, el)
	if err != nil {
		return "", err
	}
	if err := p.Click(ctx, Named("firstAcknowledgmentDeleteBtn")); err != nil {
		return "", err
	}
	if err := p.Click(ctx, Named("confirmAcknowledgmentDeleteBtn")); err != nil {
		return "", err
	}
	return removed, p.WaitMessage(ctx, "acknowledgmentDeletedMsg")
}

// AcknowledgmentExists waits for the rendered acknowledgment to be visible.
func (p *FlawDetail) AcknowledgmentExists(ctx context.Context, value string) error {
	loc := p.Registry.MustLookup("acknowledgmentValue").Format(locator.Literal(value))
	_, err := browser.WaitVisible(ctx, p.Driver, loc, p.Timeout)
	return err
}

// AcknowledgmentAbsent waits for the rendered acknowledgment to disappear.
func (p *FlawDetail) AcknowledgmentAbsent(ctx context.Context, value string) error {
	loc := p.Registry.MustLookup("acknowledgmentValue").Format(locator.Literal(value))
	return browser.WaitInvisible(ctx, p.Driver, loc, p.Timeout)
}

// ReferenceCount parses the "References: N" label.
func (p *FlawDetail) ReferenceCount(ctx context.Context) (int, error) {
	return p.labelCount(ctx, "referenceCountLabel")
}

// OpenReferences expands the reference list when it has entries.
func (p *FlawDetail) OpenReferences(ctx context.Context) error {
	n, err := p.ReferenceCount(ctx)
	if err != nil || n == 0 {
		return err
	}
	return p.ClickJS(ctx, Named("referenceDropdownBtn"))
}

// AddReference fills the new-reference form and submits it. refType is
// the visible option text ("External", "RHSB"). The caller waits for the
// outcome: referenceCreatedMsg or a validation error.
func (p *FlawDetail) AddReference(ctx context.Context, refType, url, description string) error {
	if err := p.ClickJS(ctx, Named("addReferenceBtn")); err != nil {
		return err
	}
	save, err := p.Element(ctx, "saveReferenceBtn")
	if err != nil {
		return err
	}
	if err := browser.ScrollToCenter(ctx, save); err != nil {
		return err
	}
	return p.withStickyBarsHidden(ctx, func() error {
		sel, err := p.Element(ctx, "addReferenceSelect")
		if err != nil {
			return err
		}
		if err := browser.SelectByText(ctx, sel, refType); err != nil {
			return err
		}
		link, err := p.Element(ctx, "addReferenceLinkUrlInput")
		if err != nil {
			return err
		}
		if err := browser.ScrollIntoView(ctx, link); err != nil {
			return err
		}
		if err := p.SetText(ctx, Handle(link), url); err != nil {
			return err
		}
		if err := p.SetText(ctx, Named("addReferenceDescriptionInput"), description); err != nil {
			return err
		}
		return p.ClickJS(ctx, Handle(save))
	})
}

// EditFirstReference rewrites the first reference and submits it.
func (p *FlawDetail) EditFirstReference(ctx context.Context, url, description string) error {
	if err := p.ClickJS(ctx, Named("firstReferenceEditBtn")); err != nil {
		return err
	}
	if err := p.SetText(ctx, Named("firstReferenceLinkUrlInput"), url); err != nil {
		return err
	}
	if err := p.SetText(ctx, Named("firstReferenceDescriptionTextArea"), description); err != nil {
		return err
	}
	return p.ClickJS(ctx, Named("saveReferenceBtn"))
}

// DeleteAllReferences removes every reference, one confirmation each, and
// returns how many were removed.
func (p *FlawDetail) DeleteAllReferences(ctx context.Context) (int, error) {
	refs, err := p.Elements(ctx, "referenceList")
	if err != nil {
		return 0, err
	}
	del := p.Registry.MustLookup("referenceDeleteBtn").Format(1)
	for i := range refs {
		btn, err := browser.Find(ctx, p.Driver, del)
		if err != nil {
			return i, err
		}
		if err := p.ClickJS(ctx, Handle(btn)); err != nil {
			return i, err
		}
		if err := p.Click(ctx, Named("referenceDelConfirmBtn")); err != nil {
			return i, err
		}
		if err := p.WaitMessage(ctx, "referenceDeletedMsg"); err != nil {
			return i, err
		}
		if err := p.CloseToast(ctx); err != nil {
			return i + 1, err
		}
	}
	return len(refs), nil
}
