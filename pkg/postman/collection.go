// Package postman extracts GraphQL operations from Postman collection
// exports (schema v2.x). Only items with a graphql request body are
// considered; everything else in the collection is ignored.
package postman

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/apimesh/apimesh-engine/pkg/models"
)

// Collection is the parsed result of one Postman collection export.
type Collection struct {
	Name       string
	Operations []Operation
}

// Operation is one GraphQL operation extracted from a collection item.
type Operation struct {
	Name        string
	Type        string // 'query', 'mutation', 'subscription'
	Folder      string // name of the enclosing collection folder, if any
	Description string
	Query       string
	Variables   map[string]models.VariableDescriptor
}

// rawCollection mirrors the slice of the Postman schema we care about.
type rawCollection struct {
	Info struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"info"`
	Item []rawItem `json:"item"`
}

type rawItem struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Item        []rawItem `json:"item"` // non-empty for folders
	Request     *struct {
		Description string `json:"description"`
		Body        *struct {
			Mode    string `json:"mode"`
			GraphQL *struct {
				Query     string `json:"query"`
				Variables string `json:"variables"`
			} `json:"graphql"`
		} `json:"body"`
	} `json:"request"`
}

// ParseCollection parses a Postman collection export and returns every
// GraphQL operation it contains.
func ParseCollection(raw []byte) (*Collection, error) {
	var rc rawCollection
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("failed to decode collection JSON: %w", err)
	}
	if rc.Info.Name == "" && len(rc.Item) == 0 {
		return nil, fmt.Errorf("not a Postman collection: missing info and items")
	}

	c := &Collection{Name: rc.Info.Name}
	for _, item := range rc.Item {
		collectItems(c, item, "")
	}

	return c, nil
}

func collectItems(c *Collection, item rawItem, folder string) {
	if len(item.Item) > 0 {
		// Folder: recurse with this folder as the category hint.
		for _, child := range item.Item {
			collectItems(c, child, item.Name)
		}
		return
	}

	if item.Request == nil || item.Request.Body == nil ||
		item.Request.Body.Mode != "graphql" || item.Request.Body.GraphQL == nil {
		return
	}

	gql := item.Request.Body.GraphQL
	if strings.TrimSpace(gql.Query) == "" {
		return
	}

	description := item.Description
	if description == "" {
		description = item.Request.Description
	}

	c.Operations = append(c.Operations, Operation{
		Name:        item.Name,
		Type:        operationType(gql.Query),
		Folder:      folder,
		Description: description,
		Query:       gql.Query,
		Variables:   parseVariables(gql.Variables),
	})
}

// operationType inspects the leading keyword of a GraphQL document.
// Shorthand documents (starting with a selection set) are queries.
func operationType(query string) string {
	trimmed := strings.TrimSpace(query)
	switch {
	case strings.HasPrefix(trimmed, "mutation"):
		return models.OperationTypeMutation
	case strings.HasPrefix(trimmed, "subscription"):
		return models.OperationTypeSubscription
	default:
		return models.OperationTypeQuery
	}
}

// parseVariables turns a Postman graphql variables payload (a JSON object of
// example values) into variable descriptors. A malformed payload yields no
// variables rather than failing the whole item.
func parseVariables(raw string) map[string]models.VariableDescriptor {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" {
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	if len(values) == 0 {
		return nil
	}

	variables := make(map[string]models.VariableDescriptor, len(values))
	for name, value := range values {
		variables[name] = models.VariableDescriptor{
			Type:    jsonTypeName(value),
			Example: value,
		}
	}
	return variables
}

func jsonTypeName(value any) string {
	switch value.(type) {
	case string:
		return "String"
	case bool:
		return "Boolean"
	case float64:
		return "Float"
	case map[string]any:
		return "Object"
	case []any:
		return "List"
	default:
		return "String"
	}
}
