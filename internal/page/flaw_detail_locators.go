package page

import "github.com/RedHatProductSecurity/osim/internal/locator"

const (
	textPens    = "(//button[@class='osim-editable-text-pen input-group-text'])[%d]"
	datePens    = "(//button[@class='osim-editable-date-pen input-group-text'])[%d]"
	textValues  = "(//span[@class='osim-editable-text-value form-control'])[%d]"
	dateValues  = "(//span[@class='osim-editable-date-value form-control text-start form-control'])[%d]"
	formInputs  = "(//input[@class='form-control'])[%d]"
	listEdit    = "//div[@class='osim-list-edit']"
	affectsBody = ".affects-management table tbody"
)

func at(name, template string, i int) locator.Locator {
	return locator.ByXPath(name, template).Format(i)
}

var flawDetailEntries = []locator.Locator{
	// Document text fields.
	locator.Text("comment#0Text", "span", "Comment#0"),
	locator.Contains("descriptionBtn", "button", "Add Description"),
	locator.Text("descriptionText", "span", "Description"),
	locator.Contains("statementBtn", "button", "Add Statement"),
	locator.Text("statementText", "span", "Statement"),
	locator.Contains("mitigationBtn", "button", "Add Mitigation"),
	locator.Text("mitigationText", "span", "Mitigation"),
	locator.Contains("documentTextFieldsDropDownBtn", "button", "Document Text Fields"),

	// Comments.
	locator.Contains("addCommentBtn", "button", "Comment"),
	locator.Text("newCommentText", "span", "New Public Comment"),
	locator.ByXPath("commentText", "//p[text()=%s]"),

	// Form actions and messages.
	locator.Text("resetBtn", "button", "Reset Changes"),
	locator.Text("saveBtn", "button", " Save Changes "),
	locator.Text("createNewFlawBtn", "button", "Create New Flaw"),
	locator.Text("flawSavedMsg", "div", "Flaw saved"),
	locator.Text("flawCreatedMsg", "div", "Flaw created"),

	// Acknowledgments.
	locator.ByXPath("acknowledgmentsDropDownBtn", "(//button[@class='me-2'])[1]"),
	locator.Contains("addAcknowledgmentBtn", "button", "Add Acknowledgment"),
	locator.ByXPath("addAcknowledgmentInputLeft", "(//div[@class='osim-list-create']/div/div/label/div/div/input)[1]"),
	locator.ByXPath("addAcknowledgmentInputRight", "(//div[@class='osim-list-create']/div/div/label/div/div/input)[2]"),
	locator.Contains("saveAcknowledgmentBtn", "button", "Save Changes to Acknowledgments"),
	locator.Text("acknowledgmentSavedMsg", "div", "Acknowledgment created."),
	locator.ByXPath("firstAcknowledgmentEditBtn", "("+listEdit+"/div[2]/button)[1]"),
	locator.ByXPath("firstAcknowledgmentDeleteBtn", "("+listEdit+"/div[2]/button)[2]"),
	locator.ByXPath("firstAcknowledgmentValue", "("+listEdit+"/div/div)[1]"),
	locator.ByXPath("firstAcknowledgmentEditInputLeft", listEdit+"/div/div/label[1]/div/div/input"),
	locator.ByXPath("firstAcknowledgmentEditInputRight", listEdit+"/div/div/label[2]/div/div/input"),
	locator.Contains("confirmAcknowledgmentDeleteBtn", "button", "Confirm"),
	locator.Text("acknowledgmentUpdatedMsg", "div", "Acknowledgment updated."),
	locator.Text("acknowledgmentDeletedMsg", "div", "Acknowledgment deleted."),
	locator.ByXPath("acknowledgmentCountLabel", "(//label[@class='ms-2 form-label'])[2]"),
	locator.ByXPath("acknowledgmentValue", "//div[text()=%s]"),

	// Selects.
	locator.ByXPath("impactSelect", "(//select[@class='form-select'])[1]"),
	locator.ByXPath("sourceSelect", "(//select[@class='form-select'])[2]"),

	// Editable text fields.
	at("titleEditBtn", textPens, 1),
	at("titleInput", formInputs, 2),
	locator.ByXPath("titleValue", "//span[@class='osim-editable-text-value form-control']"),
	at("componentEditBtn", textPens, 2),
	at("componentInput", formInputs, 3),
	at("componentValue", textValues, 2),
	at("cveidEditBtn", textPens, 3),
	locator.ByXPath("cveidInput", "(//input[@class='form-control is-invalid'])[1]"),
	at("cveidValue", textValues, 3),
	at("cweidEditBtn", textPens, 5),
	at("cweidInput", formInputs, 6),
	at("cweidValue", textValues, 5),
	at("assigneeEditBtn", textPens, 6),
	at("assigneeInput", formInputs, 7),
	at("assigneeValue", textValues, 6),
	at("teamidEditBtn", textPens, 7),
	at("teamidInput", formInputs, 8),
	at("teamidValue", textValues, 7),

	// Editable date fields.
	at("reportedDateEditBtn", datePens, 1),
	at("reportedDateInput", formInputs, 7),
	at("reportedDateValue", dateValues, 1),
	at("publicDateEditBtn", datePens, 2),
	at("publicDateInput", formInputs, 7),
	at("publicDateValue", dateValues, 2),

	// Embargo.
	locator.ByXPath("embargoedText", "(//span[@class='form-control'])[3]"),
	locator.ByXPath("embargeodCheckBox", "//input[@class='form-check-input']"),
	locator.Contains("embargoedPublicDateErrorMsg", "div", "unembargo_dt: An embargoed flaw must have a public date in the future"),

	// References.
	locator.ByXPath("referenceDropdownBtn", "(//button[@class='me-2'])[1]"),
	locator.Contains("referenceCountLabel", "label", "References:"),
	locator.Contains("addReferenceBtn", "button", "Add Reference"),
	locator.Contains("saveReferenceBtn", "button", "Save Changes to References"),
	locator.ByXPath("referenceList", "(//div[@class='ps-3 border-start'])[1]/div/div"),
	locator.Text("referenceCreatedMsg", "div", "Reference created."),
	locator.Contains("referenceDelConfirmBtn", "button", "Confirm"),
	locator.Text("referenceDeletedMsg", "div", "Reference deleted."),
	locator.ByXPath("addReferenceSelect", "//select[@class='form-select mb-3 osim-reference-types']"),
	locator.ByXPath("addReferenceLinkUrlInput", "(//input[@class='form-control is-invalid'])[1]"),
	locator.ByXPath("addReferenceDescriptionInput", "(//textarea[@class='form-control col-9 d-inline-block is-invalid'])[1]"),
	locator.Contains("addMultipleRHSBReferenceErrorMsg", "div", "A flaw has 2 article links, but only 1 is allowed."),
	locator.ByXPath("addReferenceDescriptionText", "(//span[text()='Description'])[1]"),
	locator.ByXPath("referenceDeleteBtn", "(("+listEdit+")[%d]/div[2]/button)[2]"),
	locator.ByXPath("firstReferenceDeleteBtn", "(("+listEdit+")[1]/div[2]/button)[2]"),
	locator.ByXPath("firstReferenceDescriptionValue", "("+listEdit+")[1]/div/div/div/div/span"),
	locator.ByXPath("firstReferenceEditBtn", "(("+listEdit+")[1]/div[2]/button)[1]"),
	locator.Text("referenceUpdatedMsg", "div", "Reference updated."),
	locator.Contains("rhsbReferenceLinkFormatErrorMsg", "div", "A flaw reference of the ARTICLE type does not begin with https://access.redhat.com"),
	locator.ByXPath("firstReferenceLinkUrlInput", listEdit+"/div/div/label[1]/div/div/input"),
	locator.ByXPath("firstReferenceDescriptionTextArea", listEdit+"/div/div/label[2]/div/textarea"),

	// Page chrome.
	locator.ByXPath("bottomBar", "//div[@class='osim-action-buttons sticky-bottom d-grid gap-2 d-flex justify-content-end']"),
	locator.ByXPath("bottomFooter", "//footer[@class='fixed-bottom osim-status-bar']"),
	locator.ByXPath("toastMsgCloseBtn", "//button[@class='osim-toast-close-btn btn-close']"),

	// Affects.
	locator.Contains("addNewAffectBtn", "button", "Add New Affect"),
	locator.ByXPath("editpens", "//button[@class='osim-editable-text-pen input-group-text']"),
	locator.ByXPath("peninputs", "//input[@class='form-control']"),
	locator.ByXPath("selects", "//select[@class='form-select']"),
	locator.Text("affectCreatedMsg", "div", "Affect Created."),
	locator.Contains("affectsUpdatedMsg", "div", "Affects Updated."),
	locator.Contains("affectsDeletedMsg", "div", "Affects Deleted."),
	locator.ByCSS("affectRows", affectsBody+" tr"),
	locator.ByCSS("affectRowSelected", affectsBody+" tr.selected"),
	locator.ByCSS("affectCell", affectsBody+" tr:nth-of-type(%d) td:nth-of-type(%d)"),
	locator.ByCSS("affectCellInput", affectsBody+" tr:nth-of-type(%d) td:nth-of-type(%d) input"),
	locator.ByCSS("affectCellSelect", affectsBody+" tr:nth-of-type(%d) td:nth-of-type(%d) select"),
	locator.ByCSS("affectEditBtn", affectsBody+" tr:nth-of-type(%d) td:last-of-type button:first-of-type"),
	locator.ByCSS("affectDeleteBtn", affectsBody+" tr:nth-of-type(%d) td:last-of-type button:nth-of-type(2)"),
	locator.ByCSS("affectHeader", ".affects-management table thead tr th:nth-of-type(%d)"),
	locator.ByCSS("affectFilter", "#%s-filter"),
	locator.ByXPath("affectBulkEditBtn", "//div[contains(@class, 'affects-table-actions')]/button[@title='Edit all selected affects']"),
	locator.ByXPath("affectBulkDeleteBtn", "//div[contains(@class, 'affects-table-actions')]/button[@title='Remove all selected affects']"),
	locator.ByXPath("affectPage", "//ul[contains(@class, 'pagination')]//*[normalize-space(text())='%d']"),

	// Trackers.
	locator.Contains("showTrackerManagerBtn", "button", "Show Trackers Manager"),
	locator.ByCSS("trackerManager", ".osim-tracker-manager"),
	locator.ByCSS("trackerFilter", ".osim-tracker-manager input[type='text']"),
	locator.ByXPath("trackerSelectAllBtn", "//div[contains(@class, 'osim-tracker-manager')]//button[contains(text(), 'Select All')]"),
	locator.ByXPath("trackerDeselectAllBtn", "//div[contains(@class, 'osim-tracker-manager')]//button[contains(text(), 'Deselect All')]"),
	locator.ByXPath("trackerCheckbox", "//div[contains(@class, 'osim-tracker-manager')]//input[@type='checkbox']"),
	locator.ByXPath("fileTrackersBtn", "//div[contains(@class, 'osim-tracker-manager')]//button[contains(text(), 'File Selected Trackers')]"),
	locator.Contains("trackersFiledMsg", "div", "trackers filed"),

	// Workflow.
	locator.ByCSS("workflowState", ".osim-workflow-state span"),
	locator.Contains("promoteBtn", "button", "Promote to"),
	locator.Text("rejectBtn", "button", "Reject"),
	locator.ByXPath("rejectReasonInput", "//div[contains(@class, 'modal-body')]//textarea"),
	locator.ByXPath("confirmRejectBtn", "//div[contains(@class, 'modal-footer')]/button[contains(text(), 'Reject')]"),
}

var flawDetailLocators = locator.MustRegistry("flaw detail", flawDetailEntries...)

// AllowedSources are the flaw sources OSIDB accepts.
var AllowedSources = []string{
	"ADOBE", "APPLE", "BUGTRAQ", "CERT", "CUSTOMER", "CVE", "DEBIAN",
	"DISTROS", "FULLDISCLOSURE", "GENTOO", "GIT", "GOOGLE", "HW_VENDOR",
	"INTERNET", "LKML", "MAGEIA", "MOZILLA", "OPENSSL", "ORACLE",
	"OSS_SECURITY", "REDHAT", "RESEARCHER", "SECUNIA", "SKO", "SUN", "SUSE",
	"TWITTER", "UBUNTU", "UPSTREAM", "VENDORSEC", "XEN",
}
