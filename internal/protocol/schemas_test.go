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
		p := filepath.Join("schemas", name)
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

	connectionSchema := compile("connection.schema.json")
	connectionRespSchema := compile("connection_response.schema.json")
	castSchema := compile("cast.schema.json")
	actionSchema := compile("action.schema.json")

	var connection any
	_ = json.Unmarshal([]byte(`{
	  "type":"CONNECTION",
	  "protocol_version":"1.0",
	  "agent_name":"hero1",
	  "world_preference":"OVERWORLD"
	}`), &connection)
	validate(connectionSchema, connection)

	var connectionResp any
	_ = json.Unmarshal([]byte(`{
	  "type":"CONNECTION_RESPONSE",
	  "protocol_version":"1.0",
	  "player_id":"p1",
	  "resume_token":"resume_p1_abc123",
	  "world_id":"w1",
	  "ability_catalog_digest":"deadbeef",
	  "config":{
	    "view_distance":6,
	    "inactive_view_distance":2,
	    "listen_distance":16,
	    "tick_millis":50
	  }
	}`), &connectionResp)
	validate(connectionRespSchema, connectionResp)

	var cast any
	_ = json.Unmarshal([]byte(`{
	  "type":"CAST",
	  "protocol_version":"1.0",
	  "act_id":"act-1",
	  "ability_id":"heal",
	  "target":"paladin",
	  "params":{"amount":5}
	}`), &cast)
	validate(castSchema, cast)

	var action any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACTION",
	  "protocol_version":"1.0",
	  "kind":"property_adjustment",
	  "action_id":"act-1",
	  "entity_id":"paladin",
	  "server_tick":42,
	  "payload":{"property":"HP","amount":5}
	}`), &action)
	validate(actionSchema, action)
}
