// Package editor implements the single-cell shift edit protocol: an
// explicit state machine with optimistic saves and guaranteed rollback.
// Transitions are pure functions of (state, event); collaborator effects
// happen only in the Saving state, and a failure there restores the
// pre-edit cell content verbatim.
package editor

import (
	"context"
	"sync"

	scherr "helpline-scheduler/errors"
	"helpline-scheduler/models"
	"helpline-scheduler/shifttime"
)

// State of the active cell as observed by clients.
type State int

const (
	Viewing State = iota
	Editing
	Saving
	Failed
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Failed:
		return "failed"
	default:
		return "viewing"
	}
}

// Event drives the state machine.
type Event int

const (
	EventOpen Event = iota
	EventSave
	EventSaved
	EventSaveFailed
	EventCancel
)

// next is the pure transition table. It reports the successor state or an
// error when the event is not legal in the given state.
func next(s State, e Event) (State, error) {
	switch {
	case e == EventOpen && (s == Viewing || s == Editing):
		// Opening while another cell is Editing implicitly cancels it.
		return Editing, nil
	case e == EventSave && s == Editing:
		return Saving, nil
	case e == EventSaved && s == Saving:
		return Viewing, nil
	case e == EventSaveFailed && s == Saving:
		return Failed, nil
	case e == EventCancel && (s == Editing || s == Failed):
		return Viewing, nil
	case s == Saving:
		return s, scherr.ErrEditInFlight
	default:
		return s, scherr.ErrNoActiveEdit
	}
}

// Draft is the in-progress cell content. The sentinel toggles are mutually
// exclusive with each other and with the start/end inputs.
type Draft struct {
	Start    string
	End      string
	Off      bool
	Vacation bool
}

// Raw renders the draft as it would be stored.
func (d Draft) Raw() string {
	switch {
	case d.Off:
		return "OFF"
	case d.Vacation:
		return "VACATION"
	case d.Start == "" && d.End == "":
		return ""
	default:
		return d.Start + "-" + d.End
	}
}

// Validate applies the write-time rules. Sentinels and the empty draft
// (a delete) are always valid; a range needs both endpoints, parseable
// clock values, and nonzero width.
func (d Draft) Validate() error {
	if d.Off || d.Vacation {
		return nil
	}
	if d.Start == "" && d.End == "" {
		return nil
	}
	if d.Start == "" || d.End == "" {
		return scherr.ErrMissingTime
	}
	start, ok := shifttime.ParseClock(d.Start)
	if !ok {
		return scherr.ErrInvalidRange
	}
	end, ok := shifttime.ParseClock(d.End)
	if !ok {
		return scherr.ErrInvalidRange
	}
	if start == end {
		return scherr.ErrZeroLength
	}
	return nil
}

// View names a derived view a successful mutation invalidates.
type View string

const (
	ViewGrid     View = "grid"
	ViewCoverage View = "coverage"
	ViewInsights View = "insights"
)

// Ack reports the outcome of a save: the raw value now stored (the prior
// value again after a rollback) and the derived views the caller must
// recompute or mark stale.
type Ack struct {
	Raw         string
	Invalidates []View
}

// ShiftWriter is the slice of the persistence collaborator the protocol
// needs. An empty raw value deletes the cell.
type ShiftWriter interface {
	UpdateShiftCell(ctx context.Context, employeeID int64, columnKey, raw string) error
}

type activeEdit struct {
	state      State
	employeeID int64
	columnKey  string
	prior      string
	draft      Draft
}

// Session holds at most one active editor for one user. All methods are
// safe for concurrent use; at most one mutation is ever in flight.
type Session struct {
	mu     sync.Mutex
	writer ShiftWriter
	active *activeEdit
}

func NewSession(writer ShiftWriter) *Session {
	return &Session{writer: writer}
}

// State reports the observable state of the session's active cell.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return Viewing
	}
	return s.active.state
}

// Open begins editing one cell. It requires the admin capability and
// refuses while a save is in flight. Opening over an existing editor
// discards that editor's unsaved draft.
func (s *Session) Open(cap models.Capability, employeeID int64, columnKey, current string) error {
	if !cap.Admin {
		return scherr.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := Viewing
	if s.active != nil {
		state = s.active.state
	}
	state, err := next(state, EventOpen)
	if err != nil {
		return err
	}

	s.active = &activeEdit{
		state:      state,
		employeeID: employeeID,
		columnKey:  columnKey,
		prior:      current,
		draft:      draftFrom(current),
	}
	return nil
}

// draftFrom prefills the editor from the cell's current content.
func draftFrom(raw string) Draft {
	v := shifttime.Parse(raw)
	switch v.Kind {
	case shifttime.Off:
		return Draft{Off: true}
	case shifttime.Vacation:
		return Draft{Vacation: true}
	case shifttime.Range:
		return Draft{Start: shifttime.Clock(v.Start), End: shifttime.Clock(v.End)}
	default:
		return Draft{}
	}
}

// SetStart updates the draft start time and clears any sentinel toggle.
func (s *Session) SetStart(start string) error {
	return s.updateDraft(func(d *Draft) {
		d.Start = start
		d.Off = false
		d.Vacation = false
	})
}

// SetEnd updates the draft end time and clears any sentinel toggle.
func (s *Session) SetEnd(end string) error {
	return s.updateDraft(func(d *Draft) {
		d.End = end
		d.Off = false
		d.Vacation = false
	})
}

// SetOff toggles the OFF sentinel. Enabling it clears the range inputs and
// the VACATION toggle.
func (s *Session) SetOff(on bool) error {
	return s.updateDraft(func(d *Draft) {
		d.Off = on
		if on {
			d.Vacation = false
			d.Start = ""
			d.End = ""
		}
	})
}

// SetVacation toggles the VACATION sentinel, mutually exclusive with OFF
// and the range inputs.
func (s *Session) SetVacation(on bool) error {
	return s.updateDraft(func(d *Draft) {
		d.Vacation = on
		if on {
			d.Off = false
			d.Start = ""
			d.End = ""
		}
	})
}

// Clear empties the draft entirely; saving it deletes the shift.
func (s *Session) Clear() error {
	return s.updateDraft(func(d *Draft) {
		*d = Draft{}
	})
}

func (s *Session) updateDraft(mutate func(*Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil || s.active.state != Editing {
		if s.active != nil && s.active.state == Saving {
			return scherr.ErrEditInFlight
		}
		return scherr.ErrNoActiveEdit
	}
	mutate(&s.active.draft)
	return nil
}

// Cancel discards the active editor with no side effect. Cancelling while
// a save is in flight is refused.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	if _, err := next(s.active.state, EventCancel); err != nil {
		return err
	}
	s.active = nil
	return nil
}

// Save validates the draft locally, then issues the mutation. Validation
// failure never contacts the collaborator. A collaborator failure restores
// the pre-edit content verbatim and surfaces the error; the ack then
// carries the restored value so the caller can re-render the cell.
func (s *Session) Save(ctx context.Context) (Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return Ack{}, scherr.ErrNoActiveEdit
	}
	edit := s.active

	state, err := next(edit.state, EventSave)
	if err != nil {
		return Ack{}, err
	}

	if err := edit.draft.Validate(); err != nil {
		// Stay in Editing so the user can correct the draft.
		return Ack{Raw: edit.prior}, &scherr.EditError{
			EmployeeID: edit.employeeID,
			ColumnKey:  edit.columnKey,
			Err:        err,
		}
	}

	edit.state = state
	raw := edit.draft.Raw()

	if err := s.writer.UpdateShiftCell(ctx, edit.employeeID, edit.columnKey, raw); err != nil {
		edit.state, _ = next(edit.state, EventSaveFailed)
		// Rollback: the cell shows its prior content again and the
		// editor closes.
		prior := edit.prior
		s.active = nil
		return Ack{Raw: prior}, &scherr.EditError{
			EmployeeID: edit.employeeID,
			ColumnKey:  edit.columnKey,
			Err:        &scherr.CollaboratorError{Op: "update shift cell", Err: err},
		}
	}

	edit.state, _ = next(edit.state, EventSaved)
	s.active = nil
	return Ack{
		Raw:         raw,
		Invalidates: []View{ViewGrid, ViewCoverage, ViewInsights},
	}, nil
}
