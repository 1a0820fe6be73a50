package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	documentsColumns = []*schema.Column{
		{Name: "collection", Type: field.TypeString},
		{Name: "id", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "seq", Type: field.TypeInt64},
	}
	documentsTable = &schema.Table{
		Name:       "documents",
		Columns:    documentsColumns,
		PrimaryKey: []*schema.Column{documentsColumns[0], documentsColumns[1]},
		Indexes: []*schema.Index{
			{Name: "documents_collection_seq", Columns: []*schema.Column{documentsColumns[0], documentsColumns[3]}},
		},
	}

	kvColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString},
		{Name: "value", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeTime},
	}
	kvTable = &schema.Table{
		Name:       "kv",
		Columns:    kvColumns,
		PrimaryKey: []*schema.Column{kvColumns[0]},
	}

	llmRequestColumns = []*schema.Column{
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt},
		{Name: "output_tokens", Type: field.TypeInt},
		{Name: "latency_ms", Type: field.TypeInt64},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Default: ""},
		{Name: "request_body", Type: field.TypeString, Default: ""},
		{Name: "response_body", Type: field.TypeString, Default: ""},
	}
	llmRequestTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmRequestColumns,
		PrimaryKey: []*schema.Column{llmRequestColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llm_request_events_timestamp", Columns: []*schema.Column{llmRequestColumns[1]}},
		},
	}

	tables = []*schema.Table{documentsTable, kvTable, llmRequestTable}
)
