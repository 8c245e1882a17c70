package qualification

import (
	"fmt"
	"strings"
)

// Prompts asked at each stage.
const (
	PromptAskName          = "Great! To help us get started, could you please tell me your **full name**?"
	promptAskAgeTemplate   = "Thanks, %s! What is your **current age**?"
	PromptAskState         = "And what **state** do you currently reside in?"
	PromptAskHealthConfirm = "Regarding your **general health**, do you have any major health conditions? (Yes/No) This helps us determine your eligibility."
	PromptAskHealthDetails = "Could you briefly mention some of the **major health conditions** you have, so we can assess the best options?"
	PromptAskBudget        = "What's your **monthly budget** for premiums? Please let me know how much you're comfortable spending per month (e.g., '$55', '$75', 'around $100')."
	PromptAskContactTime   = "Finally, what's the **best time** for a licensed agent to contact you? (e.g., 'morning', 'afternoon', 'evening', or specific days/times)"
	promptBudgetNoted      = "Perfect! I've noted your budget as **%s**. %s"
	promptSlotOffer        = "Great! I have some available slots for %s. Which specific time works best for you?\n\n%s\n\nPlease choose a number (1, 2, 3, etc.) or tell me which time you prefer."
	promptConfirmBooking   = "Perfect! I'll book you for **%s**. Can I confirm this appointment time for you? (Yes/No)"
	promptBooked           = "Thank you for providing all the details! We're processing your request. Your unique ticket number is **%s** and your booking is confirmed for **%s**. We will contact you at the scheduled time!"
	promptReoffer          = "No problem! Please choose a different time slot:\n\n%s\n\nWhich time works better for you?"
	PromptCompleted        = "You're welcome! We appreciate you providing your details. Our agent will be in touch shortly. Is there anything else I can help you with regarding final expense insurance today?"
)

// Corrective prompts returned when an answer cannot be accepted.
const (
	RetryName            = "Please provide your full name. We need it to personalize your quote. For example, 'John Doe'. (Names should not contain numbers or be too short.)"
	RetryAgeMissing      = "I couldn't find a valid age. Please provide your age as a number. For example, 'I am 65'."
	RetryAgeRange        = "Please provide a realistic age between 18 and 120. What is your current age?"
	RetryHealthConfirm   = "Please answer with 'Yes' or 'No' regarding major health conditions. (e.g., 'Yes', 'No, I have diabetes')"
	RetryBudget          = "I couldn't understand your budget amount. Please tell me how much you'd like to spend per month. For example: '$55', '$75', or 'around $100'."
	retrySlotTemplate    = "Please select one of the available time slots by choosing a number (1, 2, 3, 4) or mentioning the specific time:\n\n%s"
	RetryConfirmBooking  = "Please confirm with 'Yes' to book this time slot, or 'No' to choose a different time."
	ChatUnavailableReply = "I cannot connect to my AI services at the moment. Please inform the administrator."
)

// Recruiting sub-flow replies.
const (
	RecruitingResponse = `Thanks for reaching out! We are actively hiring motivated individuals for final expense sales. You can watch our opportunity video and review the PDF breakdown before scheduling an interview.

Recruiting Video: [Insert video link]
PDF Opportunity Breakdown: [Insert PDF link]
Schedule Interview: [Insert Calendly or CRM scheduling link]

Are you already licensed in life insurance, or are you looking to get licensed?`
	LicensedResponse        = "Awesome! We work with agents in the states of CA, Alaska, New Mexico, TX, VA, Colorado, Montana, Illinois, Idaho, Utah, Oregon, Nevada, AZ, Hawaii, Wisconsin, Florida. You'll be connected with a manager shortly."
	NotLicensedResponse     = "No worries, we help people get licensed and start earning quickly. A recruiter will reach out to you soon."
	LicensingClarification  = "Could you clarify if you currently have a life insurance license? This will help me connect you with the right person."
	RecruitingCompletedText = "Thank you for your interest in joining The Paul Group! A recruiter will reach out to you soon. Is there anything else I can help you with today?"
)

// Phrases in a free-text answer that signal the prospect is ready to be qualified.
var quoteReadyPhrases = []string{"explore options", "personalized quote"}

var (
	startKeywords = []string{"satisfied", "quote", "details", "yes", "start", "proceed", "sure"}
	greetings     = map[string]struct{}{
		"hi": {}, "hello": {}, "hey": {}, "good morning": {}, "good evening": {},
	}
)

func askAgePrompt(s *Session) string {
	return fmt.Sprintf(promptAskAgeTemplate, s.FirstName())
}

func slotList(slots []string) string {
	return strings.Join(slots, "\n")
}

// plainText strips the markdown emphasis used by the web widget for channels that cannot render it.
func plainText(reply string) string {
	return strings.ReplaceAll(reply, "**", "")
}
