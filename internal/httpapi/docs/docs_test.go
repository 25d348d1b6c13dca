package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestDocRegisteredAndValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("read doc: %v", err)
	}
	var parsed struct {
		Swagger string                    `json:"swagger"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not valid JSON: %v", err)
	}
	if parsed.Swagger != "2.0" {
		t.Fatalf("swagger=%q", parsed.Swagger)
	}
	for _, p := range []string{"/models", "/status", "/model/load", "/model/unload", "/generate", "/chat/messages"} {
		if _, ok := parsed.Paths[p]; !ok {
			t.Errorf("missing path %s", p)
		}
	}
	if _, ok := parsed.Paths["/chat/messages"]["post"]; !ok {
		t.Errorf("missing POST /chat/messages")
	}
}
