// Package projecttree applies edits to the embedded intervention / stage /
// sub-intervention tree of a project held in memory. Persisting the result
// (and appending the audit entry each Change describes) is the caller's job.
package projecttree

import (
	"errors"
	"fmt"
	"time"

	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInterventionNotFound    = errors.New("intervention not found")
	ErrStageNotFound           = errors.New("stage not found")
	ErrSubInterventionNotFound = errors.New("sub-intervention not found")
	ErrAttachmentNotFound      = errors.New("attachment not found")
	ErrInvalidStatus           = errors.New("invalid stage status")
	ErrInvalidDirection        = errors.New("invalid move direction")
)

// Move directions.
const (
	Up   = "up"
	Down = "down"
)

// Change describes what an Op did. When NoOp is set nothing was modified
// and the caller must not write or audit; Message explains why.
type Change struct {
	Action  string
	Details string
	NoOp    bool
	Message string

	// ID of the element created, when the op creates one.
	ID primitive.ObjectID

	// BlobKey names a stored file the op detached. The caller deletes it
	// once the project has been written.
	BlobKey string
}

// Op is one edit of a project tree.
type Op interface {
	Apply(p *models.Project, now time.Time) (Change, error)
}

func findIntervention(p *models.Project, id primitive.ObjectID) (*models.Intervention, int, error) {
	for i := range p.Interventions {
		if p.Interventions[i].ID == id {
			return &p.Interventions[i], i, nil
		}
	}
	return nil, -1, ErrInterventionNotFound
}

func findStage(iv *models.Intervention, id primitive.ObjectID) (*models.Stage, int, error) {
	for i := range iv.Stages {
		if iv.Stages[i].ID == id {
			return &iv.Stages[i], i, nil
		}
	}
	return nil, -1, ErrStageNotFound
}

func findSub(iv *models.Intervention, id primitive.ObjectID) (*models.SubIntervention, int, error) {
	for i := range iv.SubInterventions {
		if iv.SubInterventions[i].ID == id {
			return &iv.SubInterventions[i], i, nil
		}
	}
	return nil, -1, ErrSubInterventionNotFound
}

// moveTarget returns the index idx moves to, and false when the move
// would leave the list.
func moveTarget(idx, n int, dir string) (int, bool, error) {
	switch dir {
	case Up:
		if idx == 0 {
			return idx, false, nil
		}
		return idx - 1, true, nil
	case Down:
		if idx >= n-1 {
			return idx, false, nil
		}
		return idx + 1, true, nil
	}
	return idx, false, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
}

func edgeMessage(what, dir string) string {
	if dir == Up {
		return what + " is already first; nothing to move."
	}
	return what + " is already last; nothing to move."
}
