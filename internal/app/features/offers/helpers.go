// internal/app/features/offers/helpers.go
package offers

import (
	"context"

	"github.com/nestoreco/nestor/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// supplierOptions lists contacts with the supplier role.
func (h *Handler) supplierOptions(ctx context.Context) ([]option, map[primitive.ObjectID]string, error) {
	cs, err := h.Contacts.All(ctx, models.RoleSupplier)
	if err != nil {
		return nil, nil, err
	}
	opts := make([]option, 0, len(cs))
	names := make(map[primitive.ObjectID]string, len(cs))
	for _, c := range cs {
		label := c.FullName()
		if c.Company != "" {
			label = c.Company + " (" + c.FullName() + ")"
		}
		opts = append(opts, option{Value: c.ID.Hex(), Label: label})
		names[c.ID] = label
	}
	return opts, names, nil
}

// projectOptions lists project titles for the link picker.
func (h *Handler) projectOptions(ctx context.Context) ([]option, map[primitive.ObjectID]string, error) {
	ps, err := h.Projects.Find(ctx, bson.M{}, options.Find().
		SetSort(bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"title": 1}))
	if err != nil {
		return nil, nil, err
	}
	opts := make([]option, 0, len(ps))
	names := make(map[primitive.ObjectID]string, len(ps))
	for _, p := range ps {
		opts = append(opts, option{Value: p.ID.Hex(), Label: p.Title})
		names[p.ID] = p.Title
	}
	return opts, names, nil
}

// supplierName resolves a supplier that may no longer carry the supplier role.
func (h *Handler) supplierName(ctx context.Context, names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if n, ok := names[id]; ok {
		return n
	}
	c, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		return ""
	}
	names[id] = c.FullName()
	return names[id]
}
