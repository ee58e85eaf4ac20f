// internal/app/features/projects/attachments.go
package projects

import (
	"context"
	"errors"
	"net/http"

	projectstore "github.com/nestoreco/nestor/internal/app/store/projects"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/blobstore"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projecttree"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleUploadAttachment stores an uploaded file and appends it to the
// stage. When the stage is gone by the time the project is written the
// stored file is removed again.
func (h *Handler) HandleUploadAttachment(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := treeIDs(r, "iid", "sid")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Not found."), "/projects")
		return
	}
	back := "/projects/" + id.Hex()

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxUploadSize)
	if err := r.ParseMultipartForm(limits.MaxUploadMemory); err != nil {
		formutil.Respond(w, r, h.Flash, formutil.Fail("The file is too large or the upload was interrupted."), back)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		formutil.Respond(w, r, h.Flash, formutil.Invalid(map[string]string{"file": "Choose a file to upload."}), back)
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	obj, err := blobstore.Upload(ctx, h.Blobs, "attachments/"+id.Hex(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		h.Log.Error("attachment upload failed", zap.Error(err), zap.String("project_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not store the file."), back)
		return
	}

	actor := authz.ActorName(r)
	change, err := h.Projects.Mutate(ctx, id, actor, projecttree.AddStageAttachment{
		InterventionID: ids[0],
		StageID:        ids[1],
		Attachment: models.Attachment{
			FileName:    obj.FileName,
			Key:         obj.Key,
			ContentType: obj.ContentType,
			Size:        obj.Size,
			UploadedBy:  actor,
		},
	})
	if err != nil {
		h.removeBlob(ctx, obj.Key, "orphan attachment not removed")
	}
	formutil.Respond(w, r, h.Flash, h.mutationResult(id, change, err, "File attached."), back)
}

// HandleRemoveAttachment detaches a file from a stage and then deletes it
// from blob storage.
func (h *Handler) HandleRemoveAttachment(w http.ResponseWriter, r *http.Request) {
	id, ids, ok := h.parseTreeForm(w, r, "iid", "sid", "aid")
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	change, err := h.Projects.Mutate(ctx, id, authz.ActorName(r), projecttree.RemoveStageAttachment{
		InterventionID: ids[0],
		StageID:        ids[1],
		AttachmentID:   ids[2],
	})
	if err == nil && change.BlobKey != "" {
		h.removeBlob(ctx, change.BlobKey, "detached attachment not removed")
	}
	formutil.Respond(w, r, h.Flash, h.mutationResult(id, change, err, "Attachment removed."), "/projects/"+id.Hex())
}

// removeBlob deletes key on a context detached from the request, so a
// request that already timed out still cleans up.
func (h *Handler) removeBlob(ctx context.Context, key, msg string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.Short())
	defer cancel()
	if err := h.Blobs.Delete(ctx, key); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		h.Log.Warn(msg, zap.Error(err), zap.String("key", key))
	}
}

// ServeAttachment streams a stage attachment from blob storage.
func (h *Handler) ServeAttachment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	id, ids, ok := treeIDs(r, "iid", "sid", "aid")
	if !ok {
		h.ErrLog.NotFound(w, r, "Attachment not found.", "/projects")
		return
	}
	back := "/projects/" + id.Hex()
	p, err := h.Projects.GetByID(ctx, id)
	if errors.Is(err, projectstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Project not found.", "/projects")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "project load failed", err, "Could not load the attachment.", back)
		return
	}
	a, found := findAttachment(p, ids[0], ids[1], ids[2])
	if !found {
		h.ErrLog.NotFound(w, r, "Attachment not found.", back)
		return
	}

	rc, err := h.Blobs.Open(ctx, a.Key)
	if errors.Is(err, blobstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "The stored file is missing.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "attachment open failed", err, "Could not load the attachment.", back)
		return
	}
	defer rc.Close()

	if err := blobstore.ServeFile(w, a.FileName, a.ContentType, rc); err != nil {
		h.Log.Warn("attachment stream interrupted", zap.Error(err), zap.String("key", a.Key))
	}
}

func findAttachment(p models.Project, ivID, stageID, attID primitive.ObjectID) (models.Attachment, bool) {
	for _, iv := range p.Interventions {
		if iv.ID != ivID {
			continue
		}
		for _, st := range iv.Stages {
			if st.ID != stageID {
				continue
			}
			for _, a := range st.Attachments {
				if a.ID == attID {
					return a, true
				}
			}
		}
	}
	return models.Attachment{}, false
}
