package qualification

// TurnOutcome is the structured result of one processed message.
type TurnOutcome struct {
	// Advanced is true when the stage moved forward.
	Advanced bool
	// CommitMessage is false for validation retries; neither side of such a turn is kept in the transcript.
	CommitMessage bool
	Stage         Stage
	Reply         string

	// Booked is set on the turn that confirmed an appointment.
	Booked       bool
	TicketNumber string
	// RecruitingDetected is set on the turn that diverted the session into the recruiting sub-flow.
	RecruitingDetected bool
}

// Retry reports whether the turn was rejected and should be asked again.
func (o TurnOutcome) Retry() bool {
	return !o.CommitMessage
}

func advanceTo(stage Stage, reply string) TurnOutcome {
	return TurnOutcome{Advanced: true, CommitMessage: true, Stage: stage, Reply: reply}
}

func answerIn(stage Stage, reply string) TurnOutcome {
	return TurnOutcome{CommitMessage: true, Stage: stage, Reply: reply}
}

func retryIn(stage Stage, reply string) TurnOutcome {
	return TurnOutcome{Stage: stage, Reply: reply}
}
