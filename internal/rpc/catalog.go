package rpc

// Tool describes one callable tool in tools/list.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// JSONSchema is the subset of JSON Schema used to describe tool arguments.
type JSONSchema struct {
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Default              any                    `json:"default,omitempty"`
	AdditionalProperties *bool                  `json:"additionalProperties,omitempty"`
}

// ToolsListResult is the result of tools/list.
type ToolsListResult struct {
	Tools []Tool `json:"tools"`
}

type props map[string]*JSONSchema

func object(p props, required ...string) JSONSchema {
	return JSONSchema{Type: "object", Properties: p, Required: required}
}

func str(desc string) *JSONSchema { return &JSONSchema{Type: "string", Description: desc} }

func strDefault(def string) *JSONSchema { return &JSONSchema{Type: "string", Default: def} }

func integer(def int) *JSONSchema { return &JSONSchema{Type: "integer", Default: def} }

func boolean() *JSONSchema { return &JSONSchema{Type: "boolean"} }

func strArray() *JSONSchema {
	return &JSONSchema{Type: "array", Items: &JSONSchema{Type: "string"}}
}

func freeObject() *JSONSchema {
	yes := true
	return &JSONSchema{Type: "object", AdditionalProperties: &yes}
}

func idOnly(desc string) Tool {
	return Tool{Description: desc, InputSchema: object(props{"id": str("")}, "id")}
}

func named(name string, t Tool) Tool {
	t.Name = name
	return t
}

func listFilters() props {
	return props{
		"agentId":  str(""),
		"ns":       str(""),
		"types":    strArray(),
		"tags":     strArray(),
		"pinned":   boolean(),
		"archived": boolean(),
		"before":   str("ISO-8601 timestamp, exclusive upper bound on updatedAt"),
		"after":    str("ISO-8601 timestamp, exclusive lower bound on updatedAt"),
		"limit":    integer(50),
		"cursor":   str("opaque cursor from a previous page"),
	}
}

// Catalog returns the tool catalogue in a stable order.
func Catalog() []Tool {
	return []Tool{
		named("memory.create", Tool{
			Description: "Create a memory item",
			InputSchema: object(props{
				"content":    str(""),
				"type":       strDefault("note"),
				"title":      str(""),
				"agentId":    strDefault(""),
				"ns":         strDefault("default"),
				"metadata":   freeObject(),
				"tags":       strArray(),
				"refs":       strArray(),
				"importance": {Type: "number", Default: 0.3},
				"pin":        {Type: "boolean", Default: false},
				"expiresAt":  str("ISO-8601 timestamp"),
			}, "content"),
		}),
		named("memory.get", idOnly("Get a memory item by id")),
		named("memory.update", Tool{
			Description: "Update fields of a memory item",
			InputSchema: object(props{
				"id":         str(""),
				"content":    str(""),
				"title":      str(""),
				"metadata":   freeObject(),
				"tags":       strArray(),
				"refs":       strArray(),
				"importance": {Type: "number"},
				"pin":        boolean(),
				"archived":   boolean(),
				"expiresAt":  str("ISO-8601 timestamp"),
			}, "id"),
		}),
		named("memory.delete", Tool{
			Description: "Archive a memory item, or remove it when hard is set",
			InputSchema: object(props{"id": str(""), "hard": {Type: "boolean", Default: false}}, "id"),
		}),
		named("memory.archive", idOnly("Archive a memory item")),
		named("memory.unarchive", idOnly("Unarchive a memory item")),
		named("memory.pin", idOnly("Pin a memory item")),
		named("memory.unpin", idOnly("Unpin a memory item")),
		named("memory.list", Tool{
			Description: "List recent memories, newest first",
			InputSchema: object(listFilters()),
		}),
		named("memory.search", Tool{
			Description: "Search memories via FTS5",
			InputSchema: object(props{"query": str(""), "ns": str(""), "limit": integer(20)}, "query"),
		}),
		named("memory.cleanup", Tool{
			Description: "Delete expired memories",
			InputSchema: object(props{"ns": str("")}),
		}),
		named("memory.tags.add", Tool{
			Description: "Add tags to a memory item",
			InputSchema: object(props{"id": str(""), "tags": strArray()}, "id"),
		}),
		named("memory.tags.remove", Tool{
			Description: "Remove tags from a memory item",
			InputSchema: object(props{"id": str(""), "tags": strArray()}, "id"),
		}),
		named("memory.refs.add", Tool{
			Description: "Add references to a memory item",
			InputSchema: object(props{"id": str(""), "refs": strArray()}, "id"),
		}),
		named("memory.refs.remove", Tool{
			Description: "Remove references from a memory item",
			InputSchema: object(props{"id": str(""), "refs": strArray()}, "id"),
		}),
		named("memory.link", Tool{
			Description: "Link one memory to another with an optional relation label",
			InputSchema: object(props{"from_id": str(""), "to_id": str(""), "relation": str("")}, "from_id", "to_id"),
		}),
		named("memory.summarize", Tool{
			Description: "Create a summary memory from one item",
			InputSchema: object(props{"id": str(""), "style": str("")}, "id"),
		}),
		named("memory.summarize_thread", Tool{
			Description: "Create a summary memory from several items",
			InputSchema: object(props{"source_ids": strArray(), "style": str("")}, "source_ids"),
		}),
		named("memory.merge", Tool{
			Description: "Merge several items into a new note",
			InputSchema: object(props{"source_ids": strArray(), "target_title": str(""), "ns": str("")}, "source_ids"),
		}),
		named("memory.context", Tool{
			Description: "Pack the most relevant memories into a token budget",
			InputSchema: object(props{
				"query":  str(""),
				"ns":     str(""),
				"tags":   strArray(),
				"budget": integer(4000),
			}),
		}),
		named("memory.stats", Tool{
			Description: "Report store statistics",
			InputSchema: object(props{}),
		}),
		named("task.create", Tool{
			Description: "Create a task (stored as memory of type 'task')",
			InputSchema: object(props{"title": str(""), "ns": strDefault("default")}, "title"),
		}),
		named("task.list", Tool{
			Description: "List tasks",
			InputSchema: object(props{"limit": integer(50)}),
		}),
		named("task.update_status", Tool{
			Description: "Set a task's status, optionally recording a note",
			InputSchema: object(props{
				"id":     str(""),
				"status": str("free-form status, e.g. todo, doing, done"),
				"note":   str(""),
			}, "id", "status"),
		}),
		named("task.add_note", Tool{
			Description: "Attach a note to a task",
			InputSchema: object(props{"id": str(""), "note": str("")}, "id", "note"),
		}),
		named("export.dump", Tool{
			Description: "Export memories as NDJSON",
			InputSchema: object(props{"ns": str("")}),
		}),
		named("export.import", Tool{
			Description: "Upsert memories from NDJSON",
			InputSchema: object(props{"ndjson": str("")}, "ndjson"),
		}),
	}
}
