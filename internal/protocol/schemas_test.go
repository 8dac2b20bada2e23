package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	nodesSchema := compile("nodes_result.schema.json")
	listSchema := compile("list_result.schema.json")
	transferSchema := compile("transfer.schema.json")
	transferResultSchema := compile("transfer_result.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "actor_name":"crane_1",
	  "capabilities":{"max_queue":8}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"s_1",
	  "local_node_id":"grid:crane_1"
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var nodes any
	_ = json.Unmarshal([]byte(`{
	  "type":"NODES_RESULT",
	  "protocol_version":"1.0",
	  "req_id":"r1",
	  "nodes":[{"id":"grid:bin_2","can_list":true,"can_push":true,"can_pull":true}]
	}`), &nodes)
	validate(nodesSchema, nodes)

	var list any
	_ = json.Unmarshal([]byte(`{
	  "type":"LIST_RESULT",
	  "protocol_version":"1.0",
	  "req_id":"r2",
	  "stacks":[{"slot":0,"item":"grid:iron_ingot","count":40,"max_count":64}]
	}`), &list)
	validate(listSchema, list)

	var transfer any
	_ = json.Unmarshal([]byte(`{
	  "type":"TRANSFER",
	  "protocol_version":"1.0",
	  "req_id":"r3",
	  "exec_node":"grid:bin_2",
	  "direction":"PUSH",
	  "peer_node":"grid:bin_3",
	  "slot":0,
	  "count":16
	}`), &transfer)
	validate(transferSchema, transfer)

	var result any
	_ = json.Unmarshal([]byte(`{
	  "type":"TRANSFER_RESULT",
	  "protocol_version":"1.0",
	  "req_id":"r3",
	  "moved":16
	}`), &result)
	validate(transferResultSchema, result)
}

func TestTransferSchema_RejectsBadDirection(t *testing.T) {
	p := filepath.Join("..", "..", "schemas", "transfer.schema.json")
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var bad any
	_ = json.Unmarshal([]byte(`{
	  "type":"TRANSFER",
	  "protocol_version":"1.0",
	  "req_id":"r4",
	  "exec_node":"grid:bin_2",
	  "direction":"SIDEWAYS",
	  "peer_node":"grid:bin_3",
	  "slot":0,
	  "count":1
	}`), &bad)
	if err := s.Validate(bad); err == nil {
		t.Fatalf("expected bad direction rejected")
	}
}
