// Package registry implements the donated equipment registry: registration,
// owner-gated status and detail amendments, and reads.
package registry

import (
	"context"
	"errors"
	"fmt"

	"equipment-registry-backend/internal/model"
	"equipment-registry-backend/internal/store"
)

var (
	// ErrNotFound is returned when the referenced equipment id has no record.
	ErrNotFound = errors.New("equipment not found")
	// ErrForbidden is returned when the record exists but the caller is not its owner.
	ErrForbidden = errors.New("caller is not the equipment owner")
)

// HeightSource supplies the logical timestamp stamped onto registrations.
type HeightSource interface {
	Height() uint64
}

// Notifier is told about status changes after they are committed.
type Notifier interface {
	Dispatch(event StatusChange)
}

// Recorder observes operation outcomes.
type Recorder interface {
	ObserveOperation(operation, outcome string)
}

// StatusChange describes a committed status transition.
type StatusChange struct {
	EquipmentID int64
	Name        string
	From        string
	To          string
}

// Operation names reported to the Recorder.
const (
	OpRegister      = "register"
	OpUpdateStatus  = "update_status"
	OpUpdateDetails = "update_details"
	OpGet           = "get"
)

// Outcome labels reported to the Recorder.
const (
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeForbidden = "forbidden"
	OutcomeError     = "error"
)

// Registry owns an equipment store and applies the ownership rules to it.
type Registry struct {
	store    store.Store
	height   HeightSource
	notifier Notifier
	recorder Recorder
}

// Option configures optional Registry collaborators.
type Option func(*Registry)

// WithNotifier registers n to receive status changes.
func WithNotifier(n Notifier) Option {
	return func(r *Registry) { r.notifier = n }
}

// WithRecorder registers rec to observe operation outcomes.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// New creates a registry over s, stamping registrations with heights from h.
func New(s store.Store, h HeightSource, opts ...Option) *Registry {
	r := &Registry{store: s, height: h}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register records a new item owned by caller and returns its id.
// Field values are accepted as given.
func (r *Registry) Register(ctx context.Context, caller model.Principal, name string, d model.Details) (int64, error) {
	e := &model.Equipment{
		Owner:              caller,
		Name:               name,
		RegistrationHeight: r.height.Height(),
		Status:             model.StatusAvailable,
	}
	e.ApplyDetails(d)

	if err := r.store.Insert(ctx, e); err != nil {
		r.observe(OpRegister, err)
		return 0, fmt.Errorf("registering equipment: %w", err)
	}
	r.observe(OpRegister, nil)
	return e.ID, nil
}

// UpdateStatus replaces the status of id. The label is stored verbatim.
// Existence is checked before ownership.
func (r *Registry) UpdateStatus(ctx context.Context, caller model.Principal, id int64, status string) (int64, error) {
	var previous string
	updated, err := r.mutate(ctx, caller, id, func(e *model.Equipment) {
		previous = e.Status
		e.Status = status
	})
	r.observe(OpUpdateStatus, err)
	if err != nil {
		return 0, err
	}

	if r.notifier != nil && previous != status {
		r.notifier.Dispatch(StatusChange{
			EquipmentID: id,
			Name:        updated.Name,
			From:        previous,
			To:          status,
		})
	}
	return id, nil
}

// UpdateDetails replaces the amendable fields of id. Name, owner,
// registration height and status are left untouched.
func (r *Registry) UpdateDetails(ctx context.Context, caller model.Principal, id int64, d model.Details) (int64, error) {
	_, err := r.mutate(ctx, caller, id, func(e *model.Equipment) {
		e.ApplyDetails(d)
	})
	r.observe(OpUpdateDetails, err)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Registry) mutate(ctx context.Context, caller model.Principal, id int64, apply func(*model.Equipment)) (*model.Equipment, error) {
	updated, err := r.store.Update(ctx, id, func(e *model.Equipment) error {
		if e.Owner != caller {
			return ErrForbidden
		}
		apply(e)
		return nil
	})
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, ErrForbidden):
		return nil, ErrForbidden
	default:
		return nil, fmt.Errorf("updating equipment %d: %w", id, err)
	}
}

// Get returns the current record for id, or nil if there is none.
// Any caller may read any record.
func (r *Registry) Get(ctx context.Context, id int64) (*model.Equipment, error) {
	e, err := r.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		r.observe(OpGet, nil)
		return nil, nil
	}
	if err != nil {
		r.observe(OpGet, err)
		return nil, fmt.Errorf("getting equipment %d: %w", id, err)
	}
	r.observe(OpGet, nil)
	return e, nil
}

// List returns the records matching filter ordered by id.
func (r *Registry) List(ctx context.Context, filter store.ListFilter) ([]model.Equipment, error) {
	items, err := r.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing equipment: %w", err)
	}
	return items, nil
}

// Stats reports the registry size, last issued id and highest registration height.
func (r *Registry) Stats(ctx context.Context) (store.Stats, error) {
	stats, err := r.store.Stats(ctx)
	if err != nil {
		return store.Stats{}, fmt.Errorf("reading registry stats: %w", err)
	}
	return stats, nil
}

func (r *Registry) observe(operation string, err error) {
	if r.recorder == nil {
		return
	}
	r.recorder.ObserveOperation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrForbidden):
		return OutcomeForbidden
	default:
		return OutcomeError
	}
}
