package qualification

// enterRecruiting diverts the session into the recruiting sub-flow. Collected profile fields
// are kept; whatever the interrupted stage was collecting stays unset.
func enterRecruiting(text string) TurnOutcome {
	var out TurnOutcome
	switch ParseLicensingStatus(text) {
	case LicensingLicensed:
		out = advanceTo(StageRecruitingCompleted, RecruitingResponse+"\n\n"+LicensedResponse)
	case LicensingNotLicensed:
		out = advanceTo(StageRecruitingCompleted, RecruitingResponse+"\n\n"+NotLicensedResponse)
	default:
		out = advanceTo(StageRecruitingInquiry, RecruitingResponse)
	}
	out.RecruitingDetected = true
	return out
}

// resolveLicensing handles the reply to the licensing question.
func resolveLicensing(text string) TurnOutcome {
	switch ParseLicensingStatus(text) {
	case LicensingLicensed:
		return advanceTo(StageRecruitingCompleted, LicensedResponse)
	case LicensingNotLicensed:
		return advanceTo(StageRecruitingCompleted, NotLicensedResponse)
	default:
		return answerIn(StageRecruitingInquiry, LicensingClarification)
	}
}
