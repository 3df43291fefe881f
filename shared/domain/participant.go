package domain

import (
	"fmt"
)

type ParticipantType string

const (
	ParticipantClinic   ParticipantType = "clinic"
	ParticipantOperator ParticipantType = "operator"
)

// Participant is either a Clinic or an Operator. Loosely typed wire shapes are
// resolved into one of the two at the transport boundary.
type Participant interface {
	ParticipantId() UserId
	DisplayName() string
	Type() ParticipantType
	isParticipant()
}

type Clinic struct {
	Id   ClinicId
	Name string
}

func (c Clinic) ParticipantId() UserId { return c.Id }
func (c Clinic) Type() ParticipantType { return ParticipantClinic }
func (Clinic) isParticipant()          {}

func (c Clinic) DisplayName() string {
	if c.Name == "" {
		return fmt.Sprintf("Clinic #%d", c.Id)
	}
	return c.Name
}

type Operator struct {
	Id          OperatorId
	Name        string
	InsurerName string
}

func (o Operator) ParticipantId() UserId { return o.Id }
func (o Operator) Type() ParticipantType { return ParticipantOperator }
func (Operator) isParticipant()          {}

func (o Operator) DisplayName() string {
	switch {
	case o.Name != "" && o.InsurerName != "":
		return o.Name + " (" + o.InsurerName + ")"
	case o.Name != "":
		return o.Name
	default:
		return fmt.Sprintf("Operator #%d", o.Id)
	}
}
