package protocol

import (
	"encoding/json"
	"fmt"
)

type Action string

const (
	ActionGetEntity     Action = "GetEntity"
	ActionListEntity    Action = "ListEntity"
	ActionAddEntity     Action = "AddEntity"
	ActionUpdateEntity  Action = "UpdateEntity"
	ActionRemoveEntity  Action = "RemoveEntity"
	ActionGetWebAppMenu Action = "GetWebAppMenu"
)

// Code is a server result code such as "SUCCESS200".
type Code string

const (
	CodeSuccess200 Code = "SUCCESS200"
	CodeSuccess199 Code = "SUCCESS199"
	CodeSuccess220 Code = "SUCCESS220"
	CodeSuccess122 Code = "SUCCESS122"
)

const envelopeTypeAction = "action"

// Env carries the caller identity.
type Env struct {
	User string `json:"user"`
}

// Envelope is an outbound action request.
type Envelope struct {
	Type    string         `json:"type"`
	Action  Action         `json:"action"`
	Env     Env            `json:"env"`
	Params  map[string]any `json:"params"`
	Payload string         `json:"payload,omitempty"`
}

// NewAction builds an action envelope for user. A nil params map is sent as
// an empty object.
func NewAction(action Action, user string, params map[string]any) Envelope {
	if params == nil {
		params = map[string]any{}
	}
	return Envelope{
		Type:   envelopeTypeAction,
		Action: action,
		Env:    Env{User: user},
		Params: params,
	}
}

// WithPayload returns a copy of e carrying v serialized as the opaque
// payload string.
func (e Envelope) WithPayload(v any) (Envelope, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return e, fmt.Errorf("encode %s payload: %w", e.Action, err)
	}
	e.Payload = string(b)
	return e, nil
}

// Marshal encodes the envelope for the wire.
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// MessageModal is a transport status banner (connection lost, restored...).
type MessageModal struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
