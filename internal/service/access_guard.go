package service

import (
	"context"

	"github.com/google/uuid"

	"dsas/internal/audit"
	"dsas/internal/auth"
	"dsas/internal/errors"
	"dsas/internal/model"
)

// AccessGuard decides whether a requester may see or add plaintext records
// of a patient. A nil error means granted. Every decision lands in the
// access log.
type AccessGuard interface {
	AuthorizeRead(ctx context.Context, requester auth.Identity, patientID uuid.UUID) error
	AuthorizeRecordRead(ctx context.Context, requester auth.Identity, record *model.HealthRecord) error
	AuthorizeWrite(ctx context.Context, requester auth.Identity, patientID uuid.UUID) error
}

type accessGuard struct {
	gate     ApprovalGate
	registry AssignmentRegistry
	recorder audit.AccessRecorder
	security *audit.Security
}

// NewAccessGuard creates the guard.
func NewAccessGuard(gate ApprovalGate, registry AssignmentRegistry, recorder audit.AccessRecorder, security *audit.Security) AccessGuard {
	return &accessGuard{
		gate:     gate,
		registry: registry,
		recorder: recorder,
		security: security,
	}
}

type granted struct{}

func (g *accessGuard) AuthorizeRead(ctx context.Context, requester auth.Identity, patientID uuid.UUID) error {
	return g.authorizeRead(ctx, requester, patientID, nil)
}

func (g *accessGuard) AuthorizeRecordRead(ctx context.Context, requester auth.Identity, record *model.HealthRecord) error {
	recordID := record.ID
	return g.authorizeRead(ctx, requester, record.PatientID, &recordID)
}

func (g *accessGuard) authorizeRead(ctx context.Context, requester auth.Identity, patientID uuid.UUID, recordID *uuid.UUID) error {
	action, _ := model.MatchRole(requester.Role,
		func() (model.AccessAction, error) { return model.AccessReadOwn, nil },
		func() (model.AccessAction, error) { return model.AccessReadAssigned, nil },
		func() (model.AccessAction, error) { return model.AccessAdminRead, nil },
	)

	err := g.precheck(ctx, requester)
	if err == nil {
		_, err = model.MatchRole(requester.Role,
			func() (granted, error) {
				if requester.UserID != patientID {
					return granted{}, errors.ErrNotOwner
				}
				return granted{}, nil
			},
			func() (granted, error) {
				doctor, err := g.registry.DoctorOf(ctx, patientID)
				if err != nil {
					return granted{}, err
				}
				// unknown patients and other doctors' patients deny the same way
				if doctor == nil || doctor.ID != requester.UserID {
					return granted{}, errors.ErrNotAssigned
				}
				return granted{}, nil
			},
			func() (granted, error) {
				return granted{}, errors.ErrAdminNoPlaintext
			},
		)
	}

	g.record(ctx, requester, action, patientID, recordID, err)
	return err
}

func (g *accessGuard) AuthorizeWrite(ctx context.Context, requester auth.Identity, patientID uuid.UUID) error {
	err := g.precheck(ctx, requester)
	if err == nil {
		_, err = model.MatchRole(requester.Role,
			func() (granted, error) {
				if requester.UserID != patientID {
					return granted{}, errors.ErrNotOwner
				}
				return granted{}, nil
			},
			func() (granted, error) { return granted{}, errors.ErrForbiddenRole },
			func() (granted, error) { return granted{}, errors.ErrForbiddenRole },
		)
	}

	g.record(ctx, requester, model.AccessUpload, patientID, nil, err)
	return err
}

// precheck rejects unknown roles before anything is looked up, then requires
// an approved account.
func (g *accessGuard) precheck(ctx context.Context, requester auth.Identity) error {
	if !requester.Role.Valid() {
		return errors.ErrForbiddenRole
	}
	return g.gate.RequireApproved(ctx, requester)
}

func (g *accessGuard) record(ctx context.Context, requester auth.Identity, action model.AccessAction, patientID uuid.UUID, recordID *uuid.UUID, err error) {
	if action == "" {
		action = model.AccessReadAssigned
	}
	entry := model.AccessLog{
		ActorID:   requester.UserID,
		ActorRole: requester.Role,
		RecordID:  recordID,
		Action:    action,
		Outcome:   model.AccessGranted,
	}
	if patientID != uuid.Nil {
		p := patientID
		entry.PatientID = &p
	}

	if err != nil {
		entry.Outcome = model.AccessDenied
		var de *errors.Error
		if errors.As(err, &de) {
			entry.Reason = string(de.Reason)
		} else {
			entry.Reason = "INTERNAL_ERROR"
		}
		g.security.UnauthorizedAccess(requester.UserID, string(requester.Role), patientID.String(), entry.Reason)
	}

	g.recorder.Record(ctx, entry)
}
