package game

import (
	"errors"
	"fmt"
)

// Rejection is a recoverable refusal of a client action: wrong phase, wrong
// turn, illegal point and similar expected misuse. It leaves session state
// untouched and maps to a msgcat key for the user-facing text.
type Rejection struct {
	Code   string // stable machine code
	MsgKey string // msgcat template key
	Detail string // internal detail for logs, never shown to users
}

func (r *Rejection) Error() string {
	if r.Detail != "" {
		return fmt.Sprintf("rejected: %s (%s)", r.Code, r.Detail)
	}
	return "rejected: " + r.Code
}

// Rejection codes.
const (
	CodeWrongTurn      = "wrong_turn"
	CodeWrongPhase     = "wrong_phase"
	CodeIllegalPoint   = "illegal_point"
	CodeKoPoint        = "ko_point"
	CodeNotParticipant = "not_participant"
	CodeNotYourRole    = "not_your_role"
	CodeBadPayload     = "bad_payload"
	CodeNoResource     = "no_resource"
	CodeUnknownAction  = "unknown_action"
	CodeSessionOver    = "session_over"
)

func reject(code, detail string) *Rejection {
	return &Rejection{Code: code, MsgKey: "reject." + code, Detail: detail}
}

func RejectWrongTurn() *Rejection { return reject(CodeWrongTurn, "") }
func RejectWrongPhase(have Status) *Rejection { return reject(CodeWrongPhase, string(have)) }
func RejectIllegalPoint(d string) *Rejection { return reject(CodeIllegalPoint, d) }
func RejectKo() *Rejection { return reject(CodeKoPoint, "") }
func RejectNotParticipant() *Rejection { return reject(CodeNotParticipant, "") }
func RejectNotYourRole() *Rejection { return reject(CodeNotYourRole, "") }
func RejectBadPayload(d string) *Rejection { return reject(CodeBadPayload, d) }
func RejectNoResource(d string) *Rejection { return reject(CodeNoResource, d) }
func RejectUnknownAction(typ string) *Rejection { return reject(CodeUnknownAction, typ) }
func RejectSessionOver() *Rejection { return reject(CodeSessionOver, "") }

// AsRejection unwraps a Rejection from err.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// ErrUnknownMode marks a session whose mode has no registered module.
// Fatal configuration error: surfaced loudly, never skipped silently.
var ErrUnknownMode = errors.New("unknown game mode")

// ErrUnknownStatus marks a status the owning module does not recognize.
var ErrUnknownStatus = errors.New("unknown game status")
