package masterinterventionstore_test

import (
	"errors"
	"testing"

	masterinterventionstore "github.com/nestoreco/nestor/internal/app/store/masterinterventions"
	"github.com/nestoreco/nestor/internal/app/system/indexes"
	"github.com/nestoreco/nestor/internal/domain/models"
	"github.com/nestoreco/nestor/internal/domain/projectmetrics"
	"github.com/nestoreco/nestor/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newStore(t *testing.T) *masterinterventionstore.Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll: %v", err)
	}
	return masterinterventionstore.New(db)
}

func TestSeed_Parses(t *testing.T) {
	entries, err := masterinterventionstore.Seed()
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("seed catalog is empty")
	}
	for _, m := range entries {
		if m.Category == "" || len(m.DefaultStages) == 0 {
			t.Errorf("incomplete entry %+v", m)
		}
		if projectmetrics.RomanSuffix(m.ExpenseCategory) == "" {
			t.Errorf("%s: expense category %q has no roman numeral", m.Subcategory, m.ExpenseCategory)
		}
	}
}

func TestSeedIfEmpty(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	entries, _ := masterinterventionstore.Seed()
	n, err := store.SeedIfEmpty(ctx)
	if err != nil {
		t.Fatalf("SeedIfEmpty: %v", err)
	}
	if n != len(entries) {
		t.Errorf("inserted %d, want %d", n, len(entries))
	}
	n, err = store.SeedIfEmpty(ctx)
	if err != nil || n != 0 {
		t.Errorf("second run inserted %d, err %v", n, err)
	}
	all, _ := store.All(ctx)
	if len(all) != len(entries) {
		t.Errorf("All = %d", len(all))
	}
}

func TestCRUD(t *testing.T) {
	store := newStore(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m, err := store.Create(ctx, models.MasterIntervention{
		Category:      " Heating ",
		Subcategory:   "Heat pump",
		DefaultStages: []string{"Survey", " ", "Install"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.Category != "Heating" || len(m.DefaultStages) != 2 {
		t.Errorf("got %+v", m)
	}
	if _, err := store.Create(ctx, models.MasterIntervention{Category: "Heating", Subcategory: "Heat pump"}); !errors.Is(err, masterinterventionstore.ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
	if _, err := store.Create(ctx, models.MasterIntervention{}); !errors.Is(err, masterinterventionstore.ErrInvalid) {
		t.Error("expected error without category")
	}

	if err := store.Update(ctx, m.ID, models.MasterIntervention{Category: "Heating", Subcategory: "Heat pump", ExpenseCategory: "Heating (I)"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := store.GetByID(ctx, m.ID)
	if got.ExpenseCategory != "Heating (I)" || len(got.DefaultStages) != 0 {
		t.Errorf("got %+v", got)
	}

	if err := store.Delete(ctx, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetByID(ctx, m.ID); !errors.Is(err, masterinterventionstore.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := store.Update(ctx, primitive.NewObjectID(), models.MasterIntervention{Category: "X"}); !errors.Is(err, masterinterventionstore.ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}
