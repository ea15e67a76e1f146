package param

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.SetAliasTag("json")
	decoder.IgnoreUnknownKeys(true)
}

// Binding binds query values (GET) or the json body into v
func Binding(r *http.Request, v interface{}) error {
	if r.Method == http.MethodGet {
		return decoder.Decode(v, r.URL.Query())
	}

	return json.NewDecoder(r.Body).Decode(v)
}
