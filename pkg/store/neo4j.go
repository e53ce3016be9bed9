package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/topogram/topokit/pkg/topogram"
)

// cypherRunner executes one Cypher query and buffers its result.
type cypherRunner interface {
	Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error)
}

// neo4jExecutor runs queries through neo4j.ExecuteQuery, which manages
// sessions and retries.
type neo4jExecutor struct {
	driver   neo4j.DriverWithContext
	database string
}

func (e *neo4jExecutor) Run(ctx context.Context, query string, params map[string]any) (*neo4j.EagerResult, error) {
	opts := []neo4j.ExecuteQueryConfigurationOption{}
	if e.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(e.database))
	}
	return neo4j.ExecuteQuery(ctx, e.driver, query, params, neo4j.EagerResultTransformer, opts...)
}

// Neo4j stores topograms as a property graph:
//
//	(:Topogram)-[:HAS_NODE]->(:TopogramNode)-[:LINKS]->(:TopogramNode)
//
// Each node carries its data payload as JSON in a "data" property. Edge
// endpoints missing from the node list are created as bare nodes so no
// edge is dropped.
type Neo4j struct {
	driver neo4j.DriverWithContext
	runner cypherRunner
}

// OpenNeo4j connects to url. An empty database selects the server default.
func OpenNeo4j(ctx context.Context, url, username, password, database string) (*Neo4j, error) {
	driver, err := neo4j.NewDriverWithContext(url, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, storeErr(err, "create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, storeErr(err, "connect %s", url)
	}
	return &Neo4j{driver: driver, runner: &neo4jExecutor{driver: driver, database: database}}, nil
}

const neo4jInsertTopogram = `
CREATE (t:Topogram {id: $id, title: $title, source: $source, folder: $folder,
                    sourceFile: $sourceFile, sourceHash: $sourceHash, importRun: $importRun,
                    createdAt: $createdAt})
WITH t
UNWIND $nodes AS n
CREATE (t)-[:HAS_NODE]->(:TopogramNode {_id: n._id, id: n.id, label: n.label, topogramId: $id, data: n.data})
RETURN count(*) AS nodes`

const neo4jInsertEdges = `
MATCH (t:Topogram {id: $id})
UNWIND $edges AS e
MERGE (s:TopogramNode {topogramId: $id, id: e.source})
  ON CREATE SET s._id = e.sourceId
MERGE (d:TopogramNode {topogramId: $id, id: e.target})
  ON CREATE SET d._id = e.targetId
MERGE (t)-[:HAS_NODE]->(s)
MERGE (t)-[:HAS_NODE]->(d)
CREATE (s)-[r:LINKS {_id: e._id, topogramId: $id, data: e.data}]->(d)
RETURN count(r) AS edges`

const neo4jCleanFolder = `
MATCH (t:Topogram {folder: $folder})
OPTIONAL MATCH (t)-[:HAS_NODE]->(n:TopogramNode)
OPTIONAL MATCH (n)-[r:LINKS]->()
WITH collect(DISTINCT t) AS tops, collect(DISTINCT n) AS nodes, collect(DISTINCT r) AS links
WITH tops, nodes, size(tops) AS topograms, size(nodes) AS nodeCount, size(links) AS edges
FOREACH (x IN nodes | DETACH DELETE x)
FOREACH (x IN tops | DETACH DELETE x)
RETURN topograms, nodeCount AS nodes, edges`

func (s *Neo4j) InsertTopogram(ctx context.Context, doc *topogram.Document, nodes []topogram.NodeDocument, edges []topogram.EdgeDocument) (InsertResult, error) {
	prepare(doc, time.Now())

	nodeParams := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		data, err := json.Marshal(stamp(n.Data, doc.ID))
		if err != nil {
			return InsertResult{}, storeErr(err, "encode node payload")
		}
		nodeParams = append(nodeParams, map[string]any{
			"_id":   NewID(),
			"id":    fmt.Sprint(n.Data["id"]),
			"label": fmt.Sprint(n.Data["label"]),
			"data":  string(data),
		})
	}
	params := map[string]any{
		"id":         doc.ID,
		"title":      doc.Title,
		"source":     doc.Source,
		"folder":     doc.Folder,
		"sourceFile": doc.SourceFile,
		"sourceHash": doc.SourceHash,
		"importRun":  doc.ImportRun,
		"createdAt":  doc.CreatedAt,
		"nodes":      nodeParams,
	}
	if _, err := s.runner.Run(ctx, neo4jInsertTopogram, params); err != nil {
		return InsertResult{}, storeErr(err, "insert topogram %q", doc.Title)
	}

	if len(edges) > 0 {
		edgeParams := make([]map[string]any, 0, len(edges))
		for _, e := range edges {
			data, err := json.Marshal(stamp(e.Data, doc.ID))
			if err != nil {
				return InsertResult{}, storeErr(err, "encode edge payload")
			}
			edgeParams = append(edgeParams, map[string]any{
				"_id":      NewID(),
				"source":   fmt.Sprint(e.Data["source"]),
				"target":   fmt.Sprint(e.Data["target"]),
				"sourceId": NewID(),
				"targetId": NewID(),
				"data":     string(data),
			})
		}
		if _, err := s.runner.Run(ctx, neo4jInsertEdges, map[string]any{"id": doc.ID, "edges": edgeParams}); err != nil {
			return InsertResult{}, storeErr(err, "insert edges of %q", doc.Title)
		}
	}
	return InsertResult{TopogramID: doc.ID, Nodes: len(nodes), Edges: len(edges)}, nil
}

func (s *Neo4j) CleanFolder(ctx context.Context, folder string) (CleanResult, error) {
	res := CleanResult{Folder: folder}
	out, err := s.runner.Run(ctx, neo4jCleanFolder, map[string]any{"folder": folder})
	if err != nil {
		return res, storeErr(err, "clean folder %q", folder)
	}
	if out == nil || len(out.Records) == 0 {
		return res, nil
	}
	rec := out.Records[0]
	res.Topograms = recordInt(rec, "topograms")
	res.Nodes = recordInt(rec, "nodes")
	res.Edges = recordInt(rec, "edges")
	return res, nil
}

func recordInt(rec *neo4j.Record, key string) int64 {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int64)
	return n
}

func (s *Neo4j) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

var _ Store = (*Neo4j)(nil)
