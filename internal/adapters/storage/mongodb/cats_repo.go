package mongodb

import (
	"context"
	"errors"
	"time"

	"pet-registry/internal/domain/access"
	"pet-registry/internal/domain/cats"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// catDoc es la forma persistida. location es GeoJSON: [longitud, latitud].
type catDoc struct {
	ID        string     `bson:"_id"`
	Owner     string     `bson:"owner"`
	Name      string     `bson:"cat_name"`
	Weight    float64    `bson:"weight"`
	Filename  string     `bson:"filename"`
	Birthdate time.Time  `bson:"birthdate"`
	Location  geoJSONDoc `bson:"location"`
	CreatedAt time.Time  `bson:"created_at"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

type geoJSONDoc struct {
	Type        string     `bson:"type"`
	Coordinates [2]float64 `bson:"coordinates"`
}

func toCatDoc(c cats.Cat) catDoc {
	return catDoc{
		ID:        c.ID,
		Owner:     c.OwnerID,
		Name:      c.Name,
		Weight:    c.Weight,
		Filename:  c.Filename,
		Birthdate: c.Birthdate,
		Location:  geoJSONDoc{Type: c.Location.Type, Coordinates: c.Location.Coordinates},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d catDoc) toCat() cats.Cat {
	return cats.Cat{
		ID:        d.ID,
		OwnerID:   d.Owner,
		Name:      d.Name,
		Weight:    d.Weight,
		Filename:  d.Filename,
		Birthdate: d.Birthdate.UTC(),
		Location:  cats.Location{Type: d.Location.Type, Coordinates: d.Location.Coordinates},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type CatsRepo struct {
	coll *mongo.Collection
}

func NewCatsRepo(db *mongo.Database) *CatsRepo {
	return &CatsRepo{coll: db.Collection(catsCollection)}
}

func (r *CatsRepo) Create(ctx context.Context, c cats.Cat) error {
	_, err := r.coll.InsertOne(ctx, toCatDoc(c))
	return err
}

func (r *CatsRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	var d catDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return cats.Cat{}, mapCatErr(err)
	}
	return d.toCat(), nil
}

func (r *CatsRepo) List(ctx context.Context) ([]cats.Cat, error) {
	return r.find(ctx, bson.M{})
}

func (r *CatsRepo) ListByOwner(ctx context.Context, ownerID string) ([]cats.Cat, error) {
	return r.find(ctx, bson.M{"owner": ownerID})
}

// ListWithinBox usa rangos sobre coordinates.0 / coordinates.1 en vez de $geoWithin:
// bordes incluidos y un box invertido no matchea nada.
func (r *CatsRepo) ListWithinBox(ctx context.Context, b cats.Box) ([]cats.Cat, error) {
	return r.find(ctx, boxFilter(b))
}

func boxFilter(b cats.Box) bson.M {
	return bson.M{
		"location.coordinates.0": bson.M{"$gte": b.MinLon, "$lte": b.MaxLon},
		"location.coordinates.1": bson.M{"$gte": b.MinLat, "$lte": b.MaxLat},
	}
}

// scopeFilter arma el predicado atómico de update/delete.
func scopeFilter(s access.Scope) bson.M {
	f := bson.M{"_id": s.ID}
	if s.Restricted() {
		f["owner"] = s.OwnerID
	}
	return f
}

func catPatchSet(p cats.Patch) bson.M {
	set := bson.M{"updated_at": p.UpdatedAt}
	if p.Name != nil {
		set["cat_name"] = *p.Name
	}
	if p.Weight != nil {
		set["weight"] = *p.Weight
	}
	if p.Filename != nil {
		set["filename"] = *p.Filename
	}
	if p.Birthdate != nil {
		set["birthdate"] = *p.Birthdate
	}
	if p.Location != nil {
		set["location"] = geoJSONDoc{Type: p.Location.Type, Coordinates: p.Location.Coordinates}
	}
	if p.OwnerID != nil {
		set["owner"] = *p.OwnerID
	}
	return set
}

func (r *CatsRepo) UpdateWhere(ctx context.Context, s access.Scope, p cats.Patch) (cats.Cat, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d catDoc
	err := r.coll.FindOneAndUpdate(ctx, scopeFilter(s), bson.M{"$set": catPatchSet(p)}, opts).Decode(&d)
	if err != nil {
		return cats.Cat{}, mapCatErr(err)
	}
	return d.toCat(), nil
}

func (r *CatsRepo) DeleteWhere(ctx context.Context, s access.Scope) (cats.Cat, error) {
	var d catDoc
	if err := r.coll.FindOneAndDelete(ctx, scopeFilter(s)).Decode(&d); err != nil {
		return cats.Cat{}, mapCatErr(err)
	}
	return d.toCat(), nil
}

func (r *CatsRepo) find(ctx context.Context, filter bson.M) ([]cats.Cat, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]cats.Cat, 0)
	for cur.Next(ctx) {
		var d catDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d.toCat())
	}
	return out, cur.Err()
}

func mapCatErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return cats.ErrNotFound
	}
	return err
}
