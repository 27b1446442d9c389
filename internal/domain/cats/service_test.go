package cats

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/platform/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Cat
	err  error
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Cat{}}
}

func (r *testRepo) Create(ctx context.Context, c Cat) error {
	if r.err != nil {
		return r.err
	}
	r.byID[c.ID] = c
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Cat, error) {
	c, ok := r.byID[id]
	if !ok {
		return Cat{}, ErrNotFound
	}
	return c, nil
}

func (r *testRepo) List(ctx context.Context) ([]Cat, error) {
	return r.filter(func(Cat) bool { return true }), r.err
}

func (r *testRepo) ListByOwner(ctx context.Context, ownerID string) ([]Cat, error) {
	return r.filter(func(c Cat) bool { return c.OwnerID == ownerID }), r.err
}

func (r *testRepo) ListWithinBox(ctx context.Context, b Box) ([]Cat, error) {
	return r.filter(func(c Cat) bool { return b.Contains(c.Location) }), r.err
}

func (r *testRepo) UpdateWhere(ctx context.Context, s access.Scope, p Patch) (Cat, error) {
	c, ok := r.byID[s.ID]
	if !ok || !s.Matches(c.ID, c.OwnerID) {
		return Cat{}, ErrNotFound
	}
	c = p.Apply(c)
	r.byID[c.ID] = c
	return c, nil
}

func (r *testRepo) DeleteWhere(ctx context.Context, s access.Scope) (Cat, error) {
	c, ok := r.byID[s.ID]
	if !ok || !s.Matches(c.ID, c.OwnerID) {
		return Cat{}, ErrNotFound
	}
	delete(r.byID, c.ID)
	return c, nil
}

func (r *testRepo) filter(keep func(Cat) bool) []Cat {
	out := []Cat{}
	for _, c := range r.byID {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type testOwners map[string]Owner

func (o testOwners) Owners(ctx context.Context, ids []string) (map[string]Owner, error) {
	out := map[string]Owner{}
	for _, id := range ids {
		if v, ok := o[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

var (
	alice = &access.Principal{ID: "u-alice", Role: access.RoleUser}
	bob   = &access.Principal{ID: "u-bob", Role: access.RoleUser}
	root  = &access.Principal{ID: "u-root", Role: access.RoleAdmin}
)

func newTestService() (*Service, *testRepo) {
	repo := newTestRepo()
	owners := testOwners{
		"u-alice": {ID: "u-alice", UserName: "alice", Email: "alice@example.com"},
		"u-bob":   {ID: "u-bob", UserName: "bob", Email: "bob@example.com"},
		"u-root":  {ID: "u-root", UserName: "root", Email: "root@example.com"},
	}
	svc := NewService(repo, owners)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func createCat(t *testing.T, svc *Service, p *access.Principal, name string, lon, lat float64) Detail {
	t.Helper()
	loc := NewPoint(lon, lat)
	d, err := svc.Create(context.Background(), p, CreateInput{
		Name:      name,
		Weight:    "4.2",
		Birthdate: "2020-01-01",
		Filename:  name + ".jpg",
		Location:  &loc,
	})
	require.NoError(t, err)
	return d
}

func ptr[T any](v T) *T { return &v }

// -------------------------
// Tests
// -------------------------

func TestCreate_RoundTrip(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d := createCat(t, svc, alice, "Tom", 24.94, 60.17)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "u-alice", d.OwnerID)
	assert.Equal(t, "alice", d.Owner.UserName)

	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tom", got.Name)
	assert.Equal(t, 4.2, got.Weight)
	assert.Equal(t, "2020-01-01", got.Birthdate.Format(dateLayout))
	assert.Equal(t, [2]float64{24.94, 60.17}, got.Location.Coordinates)
	assert.Equal(t, PointType, got.Location.Type)
}

func TestCreate_RequiresPrincipal(t *testing.T) {
	svc, repo := newTestService()
	loc := NewPoint(1, 1)

	_, err := svc.Create(context.Background(), nil, CreateInput{Name: "Tom", Weight: "1", Birthdate: "2020-01-01", Filename: "a.jpg", Location: &loc})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
	assert.Empty(t, repo.byID)
}

func TestCreate_AggregatesValidation(t *testing.T) {
	svc, repo := newTestService()

	_, err := svc.Create(context.Background(), alice, CreateInput{Weight: "-1", Birthdate: "01/01/2020"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	msg := apperr.Message(err)
	assert.Contains(t, msg, "cat_name is required")
	assert.Contains(t, msg, "weight must be greater than 0")
	assert.Contains(t, msg, "birthdate must be YYYY-MM-DD")
	assert.Contains(t, msg, "filename is required")
	assert.Contains(t, msg, "location is required")
	assert.Empty(t, repo.byID)
}

func TestCreate_RejectsNonFiniteNumbers(t *testing.T) {
	svc, repo := newTestService()
	ok := NewPoint(1, 1)
	nan := NewPoint(math.NaN(), math.NaN())

	cases := []struct {
		name string
		in   CreateInput
		msg  string
	}{
		{"weight nan", CreateInput{Name: "Tom", Weight: "NaN", Birthdate: "2020-01-01", Filename: "a.png", Location: &ok}, "weight must be a number"},
		{"weight inf", CreateInput{Name: "Tom", Weight: "Inf", Birthdate: "2020-01-01", Filename: "a.png", Location: &ok}, "weight must be a number"},
		{"weight +inf", CreateInput{Name: "Tom", Weight: "+Inf", Birthdate: "2020-01-01", Filename: "a.png", Location: &ok}, "weight must be a number"},
		{"location nan", CreateInput{Name: "Tom", Weight: "1", Birthdate: "2020-01-01", Filename: "a.png", Location: &nan}, "location coordinates out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), alice, tc.in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, apperr.Message(err), tc.msg)
		})
	}
	assert.Empty(t, repo.byID)
}

func TestUpdateAsOwner_RejectsNonFiniteWeight(t *testing.T) {
	svc, _ := newTestService()
	tom := createCat(t, svc, alice, "Tom", 1, 1)

	_, err := svc.UpdateAsOwner(context.Background(), alice, tom.ID, UpdateInput{Weight: ptr("NaN")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := svc.Get(context.Background(), tom.ID)
	require.NoError(t, err)
	assert.Equal(t, tom.Weight, got.Weight)
}

func TestCreate_StoreFailure(t *testing.T) {
	svc, repo := newTestService()
	repo.err = errors.New("db down")
	loc := NewPoint(1, 1)

	_, err := svc.Create(context.Background(), alice, CreateInput{Name: "Tom", Weight: "1", Birthdate: "2020-01-01", Filename: "a.jpg", Location: &loc})
	assert.True(t, apperr.Is(err, apperr.KindStore))
	assert.Equal(t, "internal error", apperr.Message(err))
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "No cat found", apperr.Message(err))
}

func TestListByOwner_OnlyOwnCats(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	createCat(t, svc, alice, "Tom", 1, 1)
	createCat(t, svc, alice, "Felix", 2, 2)
	createCat(t, svc, bob, "Garfield", 3, 3)

	mine, err := svc.ListByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, d := range mine {
		assert.Equal(t, "u-alice", d.OwnerID)
	}

	none, err := svc.ListByOwner(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.ListByOwner(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestListWithinBox(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	createCat(t, svc, alice, "Inside", 5, 5)
	createCat(t, svc, alice, "Edge", 10, 0)
	createCat(t, svc, bob, "Outside", 11, 5)

	got, err := svc.ListWithinBox(ctx, "10,10", "0,0")
	require.NoError(t, err)
	names := []string{}
	for _, d := range got {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"Inside", "Edge"}, names)

	inverted, err := svc.ListWithinBox(ctx, "0,0", "10,10")
	require.NoError(t, err)
	assert.Empty(t, inverted)

	_, err = svc.ListWithinBox(ctx, "ten,10", "0,0")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateAsOwner_OtherOwnerIsNotFound(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	d := createCat(t, svc, alice, "Tom", 1, 1)

	_, err := svc.UpdateAsOwner(ctx, bob, d.ID, UpdateInput{Name: ptr("Stolen")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Tom", repo.byID[d.ID].Name)

	// un admin por la ruta de dueño tampoco puede tocar gatos ajenos
	_, err = svc.UpdateAsOwner(ctx, root, d.ID, UpdateInput{Name: ptr("Stolen")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateAsOwner_IgnoresOwnerField(t *testing.T) {
	svc, _ := newTestService()
	d := createCat(t, svc, alice, "Tom", 1, 1)

	got, err := svc.UpdateAsOwner(context.Background(), alice, d.ID, UpdateInput{
		Weight:  ptr("5.5"),
		OwnerID: ptr("u-bob"),
	})
	require.NoError(t, err)
	assert.Equal(t, 5.5, got.Weight)
	assert.Equal(t, "u-alice", got.OwnerID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), got.UpdatedAt)
}

func TestUpdateAsAdmin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	d := createCat(t, svc, alice, "Tom", 1, 1)

	_, err := svc.UpdateAsAdmin(ctx, alice, d.ID, UpdateInput{Name: ptr("X")})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.UpdateAsAdmin(ctx, nil, d.ID, UpdateInput{Name: ptr("X")})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	got, err := svc.UpdateAsAdmin(ctx, root, d.ID, UpdateInput{OwnerID: ptr("u-bob")})
	require.NoError(t, err)
	assert.Equal(t, "u-bob", got.OwnerID)
	assert.Equal(t, "bob", got.Owner.UserName)

	_, err = svc.UpdateAsAdmin(ctx, root, d.ID, UpdateInput{OwnerID: ptr("ghost")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "owner does not exist", apperr.Message(err))

	_, err = svc.UpdateAsAdmin(ctx, root, "missing", UpdateInput{Name: ptr("X")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdate_InvalidFields(t *testing.T) {
	svc, _ := newTestService()
	d := createCat(t, svc, alice, "Tom", 1, 1)

	_, err := svc.UpdateAsOwner(context.Background(), alice, d.ID, UpdateInput{
		Weight:   ptr("heavy"),
		Location: &Location{Type: "Polygon", Coordinates: [2]float64{1, 1}},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, apperr.Message(err), "weight must be a number")
	assert.Contains(t, apperr.Message(err), "location type must be")
}

func TestDelete_OwnerAndAdmin(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	tom := createCat(t, svc, alice, "Tom", 1, 1)
	felix := createCat(t, svc, alice, "Felix", 1, 1)

	_, err := svc.DeleteAsOwner(ctx, bob, tom.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, repo.byID, tom.ID)

	got, err := svc.DeleteAsOwner(ctx, alice, tom.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tom", got.Name)
	assert.NotContains(t, repo.byID, tom.ID)

	_, err = svc.DeleteAsAdmin(ctx, bob, felix.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	got, err = svc.DeleteAsAdmin(ctx, root, felix.ID)
	require.NoError(t, err)
	assert.Equal(t, "Felix", got.Name)
	assert.Empty(t, repo.byID)
}

func TestExpand_MissingOwnerKeepsID(t *testing.T) {
	svc, _ := newTestService()
	ghost := &access.Principal{ID: "u-ghost", Role: access.RoleUser}
	createCat(t, svc, ghost, "Orphan", 1, 1)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, Owner{ID: "u-ghost"}, all[0].Owner)
}
