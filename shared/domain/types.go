package domain

type (
	UserId            = int64
	ClinicId          = int64
	OperatorId        = int64
	ConversationId    = int64
	MsgId             = int64
	ClinicalRequestId = int64

	MsgText = string
)

// ProgressFunc receives upload progress as a percentage in [0,100].
type ProgressFunc func(percent int)
