package chat

import (
	"fmt"

	"github.com/davidbz/linguist/internal/domain"
)

// Commands an inbound event may carry.
const (
	CommandNone    = ""
	CommandStart   = "start"
	CommandAnalyze = "analyze"
)

// Menu actions.
const (
	ActionPayFine  = "pay_fine"
	ActionGetBlank = "get_blank"
	ActionRepent   = "repent"
	ActionStatus   = "status"
)

const (
	greetingText    = "Hello! Good thing you came to us in time. Tell us everything, quickly."
	usageText       = "Citizen, send a message of no more than %d characters for analysis."
	tooLongText     = "Sorry, we do not accept texts longer than %d characters."
	queuedText      = "Please wait, citizen: your request is already queued."
	progressStart   = "Linguistic analysis in progress: "
	progressRunning = "Analysis: "
	progressDone    = "Analysis complete: "
	awaitingText    = "Please wait for your investigator's reply..."
	menuText        = "Your fate is in your hands, citizen."
	reportCaption   = "Here are the results of the linguistic analysis."
	qrCaption       = "Scan the QR code to pay instantly."
	qrMissingText   = "QR code not found, please contact support."
	blankCaption    = "Here is your self-report form. Fill it in, print it and mail us a copy."
	blankMissing    = "Form not found."
	repentText      = "You have already used your phone call."
	statusText      = "Status 17 confirmed."
	blankName       = "blank.doc"
)

// Menu returns the buttons sent after a delivered report.
func Menu() []domain.Button {
	return []domain.Button{
		{Text: "💳 Pay the fine on the spot", Action: ActionPayFine},
		{Text: "💾 Self-report form", Action: ActionGetBlank},
		{Text: "📞 Call a friend", Action: ActionRepent},
		{Text: "💼 Check status", Action: ActionStatus},
	}
}

func usageMessage(maxLength int) string {
	return fmt.Sprintf(usageText, maxLength)
}

func tooLongMessage(maxLength int) string {
	return fmt.Sprintf(tooLongText, maxLength)
}
