package domain

// Viewer is the authenticated user the engine keeps state for.
type Viewer struct {
	Id   UserId
	Role ParticipantType
	Name string
}

func (v Viewer) IsOperator() bool { return v.Role == ParticipantOperator }

// Participant returns the viewer as a tagged participant value.
func (v Viewer) Participant() Participant {
	if v.IsOperator() {
		return Operator{Id: v.Id, Name: v.Name}
	}
	return Clinic{Id: v.Id, Name: v.Name}
}

// Is reports whether the given sender is this viewer.
func (v Viewer) Is(senderId UserId, senderType ParticipantType) bool {
	return v.Id == senderId && v.Role == senderType
}
