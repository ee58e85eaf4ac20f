// internal/app/features/offers/file.go
package offers

import (
	"context"
	"errors"
	"net/http"

	offerstore "github.com/nestoreco/nestor/internal/app/store/offers"
	"github.com/nestoreco/nestor/internal/app/system/authz"
	"github.com/nestoreco/nestor/internal/app/system/blobstore"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleUpload stores the offer document, replacing any previous one.
// A replaced document loses its analysis.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := formutil.URLID(r, "id")
	if !ok {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Offer not found."), "/offers")
		return
	}
	back := "/offers/" + id.Hex()

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

	prev, err := h.Offers.GetByID(ctx, id)
	if errors.Is(err, offerstore.ErrNotFound) {
		formutil.Respond(w, r, h.Flash, formutil.Fail("Offer not found."), "/offers")
		return
	}
	if err != nil {
		h.Log.Error("offer load failed", zap.Error(err), zap.String("offer_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not store the file."), back)
		return
	}

	obj, err := blobstore.Upload(ctx, h.Blobs, "offers/"+id.Hex(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		h.Log.Error("offer upload failed", zap.Error(err), zap.String("offer_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not store the file."), back)
		return
	}
	att := models.Attachment{
		ID:          primitive.NewObjectID(),
		FileName:    obj.FileName,
		Key:         obj.Key,
		ContentType: obj.ContentType,
		Size:        obj.Size,
		UploadedBy:  authz.ActorName(r),
		UploadedAt:  h.now(),
	}
	if err := h.Offers.SetFile(ctx, id, att); err != nil {
		if derr := h.Blobs.Delete(ctx, obj.Key); derr != nil {
			h.Log.Warn("orphan offer file not removed", zap.Error(derr), zap.String("key", obj.Key))
		}
		h.Log.Error("offer file update failed", zap.Error(err), zap.String("offer_id", id.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not store the file."), back)
		return
	}
	if prev.File != nil {
		if err := h.Blobs.Delete(ctx, prev.File.Key); err != nil {
			h.Log.Warn("replaced offer file not removed", zap.Error(err), zap.String("key", prev.File.Key))
		}
	}
	formutil.Respond(w, r, h.Flash, formutil.OK("Document uploaded."), back)
}

// ServeFile streams the offer document.
func (h *Handler) ServeFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()
	o, ok := h.loadOffer(ctx, w, r)
	if !ok {
		return
	}
	back := "/offers/" + o.ID.Hex()
	if o.File == nil {
		h.ErrLog.NotFound(w, r, "This offer has no document.", back)
		return
	}
	rc, err := h.Blobs.Open(ctx, o.File.Key)
	if errors.Is(err, blobstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "The stored file is missing.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "offer file open failed", err, "Could not load the document.", back)
		return
	}
	defer rc.Close()
	if err := blobstore.ServeFile(w, o.File.FileName, o.File.ContentType, rc); err != nil {
		h.Log.Warn("offer file stream interrupted", zap.Error(err), zap.String("key", o.File.Key))
	}
}
