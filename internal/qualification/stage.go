package qualification

// Stage is a position in the qualification conversation.
type Stage string

const (
	StageInitialChat         Stage = "initial_chat"
	StageAskName             Stage = "ask_name"
	StageAskAge              Stage = "ask_age"
	StageAskState            Stage = "ask_state"
	StageAskHealthConfirm    Stage = "ask_health_confirm"
	StageAskHealthDetails    Stage = "ask_health_details"
	StageAskBudget           Stage = "ask_budget"
	StageAskContactTime      Stage = "ask_contact_time"
	StageAskTimeSlot         Stage = "ask_time_slot_confirmation"
	StageConfirmBooking      Stage = "confirm_booking"
	StageCompleted           Stage = "completed_qualification"
	StageRecruitingInquiry   Stage = "recruiting_inquiry"
	StageRecruitingCompleted Stage = "recruiting_completed"
)

var knownStages = map[Stage]struct{}{
	StageInitialChat:         {},
	StageAskName:             {},
	StageAskAge:              {},
	StageAskState:            {},
	StageAskHealthConfirm:    {},
	StageAskHealthDetails:    {},
	StageAskBudget:           {},
	StageAskContactTime:      {},
	StageAskTimeSlot:         {},
	StageConfirmBooking:      {},
	StageCompleted:           {},
	StageRecruitingInquiry:   {},
	StageRecruitingCompleted: {},
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	_, ok := knownStages[s]
	return ok
}

// IsRecruiting reports whether s belongs to the recruiting sub-flow.
func (s Stage) IsRecruiting() bool {
	return s == StageRecruitingInquiry || s == StageRecruitingCompleted
}

// IsTerminal reports whether no further profile data is collected in s.
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageRecruitingCompleted
}

func (s Stage) String() string { return string(s) }
