package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/topogram/topokit/pkg/topogram"
)

// Collection names used by the visualization app.
const (
	CollectionTopograms = "topograms"
	CollectionNodes     = "nodes"
	CollectionEdges     = "edges"
)

// collection is the subset of *mongo.Collection the store uses.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*options.InsertManyOptions) (*mongo.InsertManyResult, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// Mongo writes topograms into the app's MongoDB database. IDs are stored
// as ObjectIDs, matching documents the app creates itself.
type Mongo struct {
	client    *mongo.Client
	topograms collection
	nodes     collection
	edges     collection
	now       func() time.Time
}

// OpenMongo connects to url and selects database.
func OpenMongo(ctx context.Context, url, database, username, password string) (*Mongo, error) {
	opts := options.Client().ApplyURI(url)
	if username != "" {
		opts.SetAuth(options.Credential{Username: username, Password: password})
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, storeErr(err, "connect %s", url)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, storeErr(err, "ping %s", url)
	}
	db := client.Database(database)
	m := newMongo(db.Collection(CollectionTopograms), db.Collection(CollectionNodes), db.Collection(CollectionEdges))
	m.client = client
	return m, nil
}

func newMongo(topograms, nodes, edges collection) *Mongo {
	return &Mongo{topograms: topograms, nodes: nodes, edges: edges, now: time.Now}
}

func (m *Mongo) InsertTopogram(ctx context.Context, doc *topogram.Document, nodes []topogram.NodeDocument, edges []topogram.EdgeDocument) (InsertResult, error) {
	now := m.now()
	prepare(doc, now)
	topID, err := primitive.ObjectIDFromHex(doc.ID)
	if err != nil {
		return InsertResult{}, storeErr(err, "topogram id %q", doc.ID)
	}

	parent := bson.M{
		"_id":       topID,
		"title":     doc.Title,
		"source":    doc.Source,
		"folder":    doc.Folder,
		"createdAt": doc.CreatedAt,
	}
	putString(parent, "sourceFile", doc.SourceFile)
	putString(parent, "sourceHash", doc.SourceHash)
	putString(parent, "importRun", doc.ImportRun)
	if _, err := m.topograms.InsertOne(ctx, parent); err != nil {
		return InsertResult{}, storeErr(err, "insert topogram %q", doc.Title)
	}

	if len(nodes) > 0 {
		docs := make([]interface{}, len(nodes))
		for i, n := range nodes {
			docs[i] = childDoc(topID, n.Data, now)
		}
		if _, err := m.nodes.InsertMany(ctx, docs); err != nil {
			return InsertResult{}, storeErr(err, "insert nodes of %q", doc.Title)
		}
	}
	if len(edges) > 0 {
		docs := make([]interface{}, len(edges))
		for i, e := range edges {
			docs[i] = childDoc(topID, e.Data, now)
		}
		if _, err := m.edges.InsertMany(ctx, docs); err != nil {
			return InsertResult{}, storeErr(err, "insert edges of %q", doc.Title)
		}
	}
	return InsertResult{TopogramID: doc.ID, Nodes: len(nodes), Edges: len(edges)}, nil
}

func childDoc(topID primitive.ObjectID, data map[string]any, now time.Time) bson.M {
	d := make(bson.M, len(data)+1)
	for k, v := range data {
		d[k] = v
	}
	d["topogramId"] = topID
	return bson.M{
		"_id":        primitive.NewObjectID(),
		"topogramId": topID,
		"createdAt":  now,
		"data":       d,
	}
}

func putString(m bson.M, key, value string) {
	if value != "" {
		m[key] = value
	}
}

// CleanFolder removes the topograms of folder. Children are matched by
// parent ID in both ObjectID and string form, at the top level or inside
// data, since older imports stored either.
func (m *Mongo) CleanFolder(ctx context.Context, folder string) (CleanResult, error) {
	res := CleanResult{Folder: folder}

	cur, err := m.topograms.Find(ctx, bson.M{"folder": folder}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return res, storeErr(err, "find topograms in %q", folder)
	}
	var tops []struct {
		ID interface{} `bson:"_id"`
	}
	if err := cur.All(ctx, &tops); err != nil {
		return res, storeErr(err, "read topograms in %q", folder)
	}
	if len(tops) == 0 {
		return res, nil
	}

	var objIDs []primitive.ObjectID
	var strIDs []string
	for _, t := range tops {
		switch id := t.ID.(type) {
		case primitive.ObjectID:
			objIDs = append(objIDs, id)
			strIDs = append(strIDs, id.Hex())
		case string:
			strIDs = append(strIDs, id)
		}
	}
	filter := parentFilter(objIDs, strIDs)

	nodesDel, err := m.nodes.DeleteMany(ctx, filter)
	if err != nil {
		return res, storeErr(err, "delete nodes in %q", folder)
	}
	edgesDel, err := m.edges.DeleteMany(ctx, filter)
	if err != nil {
		return res, storeErr(err, "delete edges in %q", folder)
	}
	topsDel, err := m.topograms.DeleteMany(ctx, bson.M{"folder": folder})
	if err != nil {
		return res, storeErr(err, "delete topograms in %q", folder)
	}
	res.Nodes = nodesDel.DeletedCount
	res.Edges = edgesDel.DeletedCount
	res.Topograms = topsDel.DeletedCount
	return res, nil
}

func parentFilter(objIDs []primitive.ObjectID, strIDs []string) bson.M {
	var clauses bson.A
	if len(objIDs) > 0 {
		clauses = append(clauses,
			bson.M{"topogramId": bson.M{"$in": objIDs}},
			bson.M{"data.topogramId": bson.M{"$in": objIDs}})
	}
	if len(strIDs) > 0 {
		clauses = append(clauses,
			bson.M{"topogramId": bson.M{"$in": strIDs}},
			bson.M{"data.topogramId": bson.M{"$in": strIDs}})
	}
	return bson.M{"$or": clauses}
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
