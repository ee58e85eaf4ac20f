// internal/app/features/offers/analyze.go
package offers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/nestoreco/nestor/internal/app/system/aiflows"
	"github.com/nestoreco/nestor/internal/app/system/formutil"
	"github.com/nestoreco/nestor/internal/app/system/limits"
	"github.com/nestoreco/nestor/internal/app/system/llm"
	"github.com/nestoreco/nestor/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleAnalyze sends the offer and its document to the model and stores
// the answer on the offer.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	o, ok := h.loadOffer(ctx, w, r)
	if !ok {
		return
	}
	back := "/offers/" + o.ID.Hex()
	if h.Flows == nil || !h.Flows.Enabled() {
		formutil.Respond(w, r, h.Flash, formutil.Fail("AI analysis is not configured."), back)
		return
	}

	in := aiflows.OfferInput{Title: o.Title, Amount: o.Amount}
	if c, err := h.Contacts.GetByID(ctx, o.SupplierID); err == nil {
		in.Supplier = c.FullName()
		if c.Company != "" {
			in.Supplier = c.Company
		}
	}
	if o.File != nil {
		f, err := h.readFile(ctx, o.File.Key, o.File.ContentType)
		if err != nil {
			h.Log.Error("offer file read failed", zap.Error(err), zap.String("key", o.File.Key))
			formutil.Respond(w, r, h.Flash, formutil.Fail("Could not read the offer document."), back)
			return
		}
		in.File = f
	}

	out, err := h.Flows.AnalyzeOffer(ctx, in)
	if err != nil {
		msg := "The AI analysis failed. Try again later."
		if errors.Is(err, llm.ErrDisabled) {
			msg = "AI analysis is not configured."
		}
		formutil.Respond(w, r, h.Flash, formutil.Fail(msg), back)
		return
	}
	// Stored as returned; ServeView sanitizes on display.
	analysis := strings.TrimSpace(out)
	if err := h.Offers.SetAnalysis(ctx, o.ID, analysis); err != nil {
		h.Log.Error("offer analysis save failed", zap.Error(err), zap.String("offer_id", o.ID.Hex()))
		formutil.Respond(w, r, h.Flash, formutil.Fail("Could not save the analysis."), back)
		return
	}
	formutil.Respond(w, r, h.Flash, formutil.OK("Analysis updated."), back)
}

// readFile loads a stored document for inline submission to the model.
func (h *Handler) readFile(ctx context.Context, key, contentType string) (*llm.File, error) {
	rc, err := h.Blobs.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, limits.MaxUploadSize))
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &llm.File{MIMEType: contentType, Data: data}, nil
}
