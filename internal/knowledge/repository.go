package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devika/graphchat/internal/domain"
	"github.com/devika/graphchat/internal/graph"
)

// ErrEndpointNotFound indicates a relationship references a missing entity.
var ErrEndpointNotFound = errors.New("relationship endpoint entity not found")

// Repository encapsulates knowledge graph queries over a graph.Client. The
// retriever consumes only the read surface; upserts exist for the ingestion
// pipeline.
type Repository struct {
	client graph.Client
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graph.Client) *Repository {
	return &Repository{client: client}
}

// FindNodesByLabel returns entities whose label contains the given substring,
// case-insensitively, together with their edge degree. An empty substring
// returns every entity; the matcher uses this to build its label index.
// Results are ordered by entity ID for reproducible downstream traversal.
func (r *Repository) FindNodesByLabel(ctx context.Context, substring string) ([]domain.GraphNode, error) {
	params := map[string]any{
		"substring": strings.ToLower(strings.TrimSpace(substring)),
	}

	res, err := r.client.ExecuteRead(ctx, findNodesByLabelCypher, params)
	if err != nil {
		return nil, fmt.Errorf("find nodes by label: %w", err)
	}

	nodes := make([]domain.GraphNode, 0, len(res.Records))
	for _, record := range res.Records {
		nodes = append(nodes, nodeFromRecord(record))
	}
	return nodes, nil
}

// GetEdges returns the edges touching the given node in the requested
// direction, with endpoint labels resolved. Edge IDs are deterministic
// (source|relation|target) so traversal order is stable across calls.
func (r *Repository) GetEdges(ctx context.Context, nodeID string, direction domain.EdgeDirection) ([]domain.GraphEdge, error) {
	if nodeID == "" {
		return nil, errors.New("node id is required")
	}

	var cyphers []string
	switch direction {
	case domain.DirectionOutgoing:
		cyphers = []string{outgoingEdgesCypher}
	case domain.DirectionIncoming:
		cyphers = []string{incomingEdgesCypher}
	case domain.DirectionBoth, "":
		cyphers = []string{outgoingEdgesCypher, incomingEdgesCypher}
	default:
		return nil, fmt.Errorf("unknown edge direction %q", direction)
	}

	params := map[string]any{"nodeId": nodeID}
	var edges []domain.GraphEdge
	for _, cypher := range cyphers {
		res, err := r.client.ExecuteRead(ctx, cypher, params)
		if err != nil {
			return nil, fmt.Errorf("get edges for %s: %w", nodeID, err)
		}
		for _, record := range res.Records {
			edges = append(edges, edgeFromRecord(record))
		}
	}
	return edges, nil
}

// UpsertEntity ensures an entity node exists with the latest metadata.
func (r *Repository) UpsertEntity(ctx context.Context, input domain.EntityInput) error {
	if input.ID == "" {
		return errors.New("entity id is required")
	}
	if input.Label == "" {
		return errors.New("entity label is required")
	}

	params := map[string]any{
		"entityId":    input.ID,
		"label":       input.Label,
		"type":        input.Type,
		"description": input.Description,
		"aliases":     input.Aliases,
	}

	if _, err := r.client.ExecuteWrite(ctx, upsertEntityCypher, params); err != nil {
		return fmt.Errorf("upsert entity %s: %w", input.ID, err)
	}
	return nil
}

// UpsertRelationship ensures a directed, typed relationship exists between two
// entities. Both endpoints must already exist; a relationship to a missing
// entity is rejected rather than creating a dangling edge.
func (r *Repository) UpsertRelationship(ctx context.Context, input domain.RelationshipInput) error {
	if input.SourceID == "" || input.TargetID == "" {
		return errors.New("both source and target entity IDs are required")
	}
	if input.Relation == "" {
		return errors.New("relation type is required")
	}

	params := map[string]any{
		"sourceId": input.SourceID,
		"targetId": input.TargetID,
		"relation": input.Relation,
	}

	res, err := r.client.ExecuteWrite(ctx, upsertRelationshipCypher, params)
	if err != nil {
		return fmt.Errorf("upsert relationship %s-[%s]->%s: %w", input.SourceID, input.Relation, input.TargetID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("%w: %s or %s", ErrEndpointNotFound, input.SourceID, input.TargetID)
	}
	return nil
}

// Stats returns entity and relationship counts.
func (r *Repository) Stats(ctx context.Context) (domain.GraphStats, error) {
	res, err := r.client.ExecuteRead(ctx, statsCypher, nil)
	if err != nil {
		return domain.GraphStats{}, fmt.Errorf("graph stats: %w", err)
	}
	if len(res.Records) == 0 {
		return domain.GraphStats{}, nil
	}
	record := res.Records[0]
	return domain.GraphStats{
		Entities:      toInt64(record["entities"]),
		Relationships: toInt64(record["relationships"]),
	}, nil
}

func nodeFromRecord(record graph.Record) domain.GraphNode {
	attrs := map[string]any{}
	if desc := toString(record["description"]); desc != "" {
		attrs["description"] = desc
	}
	if aliases := toStringSlice(record["aliases"]); len(aliases) > 0 {
		attrs["aliases"] = aliases
	}
	return domain.GraphNode{
		ID:         toString(record["entityId"]),
		Label:      toString(record["label"]),
		Type:       toString(record["type"]),
		Attributes: attrs,
		Degree:     int(toInt64(record["degree"])),
	}
}

func edgeFromRecord(record graph.Record) domain.GraphEdge {
	edge := domain.GraphEdge{
		SourceID:    toString(record["sourceId"]),
		SourceLabel: toString(record["sourceLabel"]),
		TargetID:    toString(record["targetId"]),
		TargetLabel: toString(record["targetLabel"]),
		Relation:    toString(record["relation"]),
	}
	edge.ID = edge.SourceID + "|" + edge.Relation + "|" + edge.TargetID
	return edge
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toStringSlice(val any) []string {
	switch v := val.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toInt64(val any) int64 {
	switch v := val.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

const findNodesByLabelCypher = `
MATCH (e:Entity)
WHERE $substring = '' OR toLower(e.label) CONTAINS $substring
OPTIONAL MATCH (e)-[r:RELATES_TO]-()
RETURN e.entityId AS entityId,
       e.label AS label,
       e.type AS type,
       e.description AS description,
       e.aliases AS aliases,
       count(r) AS degree
ORDER BY e.entityId
`

const outgoingEdgesCypher = `
MATCH (s:Entity {entityId: $nodeId})-[r:RELATES_TO]->(t:Entity)
RETURN s.entityId AS sourceId,
       s.label AS sourceLabel,
       r.relation AS relation,
       t.entityId AS targetId,
       t.label AS targetLabel
ORDER BY r.relation, t.entityId
`

const incomingEdgesCypher = `
MATCH (s:Entity)-[r:RELATES_TO]->(t:Entity {entityId: $nodeId})
RETURN s.entityId AS sourceId,
       s.label AS sourceLabel,
       r.relation AS relation,
       t.entityId AS targetId,
       t.label AS targetLabel
ORDER BY r.relation, s.entityId
`

const upsertEntityCypher = `
MERGE (e:Entity {entityId: $entityId})
SET e.label = $label,
    e.type = $type,
    e.description = $description,
    e.aliases = $aliases
RETURN e.entityId AS entityId
`

const upsertRelationshipCypher = `
MATCH (s:Entity {entityId: $sourceId})
MATCH (t:Entity {entityId: $targetId})
MERGE (s)-[r:RELATES_TO {relation: $relation}]->(t)
RETURN s.entityId AS sourceId, t.entityId AS targetId
`

const statsCypher = `
MATCH (e:Entity)
OPTIONAL MATCH ()-[r:RELATES_TO]->()
RETURN count(DISTINCT e) AS entities, count(DISTINCT r) AS relationships
`
