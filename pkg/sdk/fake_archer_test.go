package grclookup

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
)

const fakeToken = "SESSION-1"

// fakeArcher is a minimal platform with one application, Incidents (100):
// Ticket Number (text, id 10) and Priority (values list 300, id 20).
type fakeArcher struct {
	srv          *httptest.Server
	fast         bool
	logins       atomic.Int32
	fieldLoads   atomic.Int32
	searches     atomic.Int32
	unauthorized atomic.Int32
}

type searchBody struct {
	ModuleID int `json:"ModuleId"`
	Page     struct {
		Start int `json:"Start"`
		Size  int `json:"Size"`
	} `json:"Page"`
	Filters []struct {
		FieldID int `json:"FieldId"`
		Value   any `json:"Value"`
	} `json:"Filters"`
}

// fastRecords holds the records of each searchable value.
var fastRecords = map[string][]int{
	"INC-1": {555},
	"DUP":   {1, 2, 3},
	"1":     {7}, // Priority=High by values list id
}

func newFakeArcher(t *testing.T, fast bool) *fakeArcher {
	t.Helper()
	f := &fakeArcher{fast: fast}

	r := chi.NewRouter()
	r.Post("/api/core/security/login", func(w http.ResponseWriter, _ *http.Request) {
		f.logins.Add(1)
		writeJSON(w, map[string]any{
			"IsSuccessful":    true,
			"RequestedObject": map[string]any{"SessionToken": fakeToken},
		})
	})
	r.Group(func(r chi.Router) {
		r.Use(f.requireSession)
		r.Get("/api/core/system/application", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, []map[string]any{
				{"IsSuccessful": true, "RequestedObject": map[string]any{"Id": 100, "Name": "Incidents"}},
			})
		})
		r.Get("/api/core/system/fielddefinition/application/100", func(w http.ResponseWriter, _ *http.Request) {
			f.fieldLoads.Add(1)
			writeJSON(w, []map[string]any{
				{"IsSuccessful": true, "RequestedObject": map[string]any{
					"Id": 10, "Name": "Ticket Number", "Alias": "Ticket_Number", "Type": 1, "IsActive": true,
				}},
				{"IsSuccessful": true, "RequestedObject": map[string]any{
					"Id": 20, "Name": "Priority", "Type": 4, "IsActive": true, "RelatedValuesListId": 300,
				}},
			})
		})
		r.Get("/api/core/system/valueslistvalue/flat/valueslist/300", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, []map[string]any{
				{"IsSuccessful": true, "RequestedObject": map[string]any{"Id": 1, "Name": "High"}},
				{"IsSuccessful": true, "RequestedObject": map[string]any{"Id": 2, "Name": "Low"}},
			})
		})
		if fast {
			r.Post("/api/core/content/record/search", f.search)
		}
		r.Get("/contentapi/", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"value": []map[string]any{{"name": "Incidents", "url": "Incidents"}}})
		})
		r.Get("/contentapi/Incidents", f.content)
	})

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeArcher) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Archer session-id="+fakeToken {
			f.unauthorized.Add(1)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeArcher) search(w http.ResponseWriter, r *http.Request) {
	var body searchBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Filters) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if body.Filters[0].FieldID == 0 {
		writeJSON(w, []any{})
		return
	}
	f.searches.Add(1)

	var key string
	switch v := body.Filters[0].Value.(type) {
	case string:
		key = v
	case float64:
		key = jsonNumber(v)
	}
	ids := fastRecords[key]

	end := body.Page.Start + body.Page.Size
	if body.Page.Start >= len(ids) {
		ids = nil
	} else {
		ids = ids[body.Page.Start:min(end, len(ids))]
	}
	rows := make([]map[string]any, len(ids))
	for i, id := range ids {
		rows[i] = map[string]any{"RequestedObject": map[string]any{"Id": id}}
	}
	writeJSON(w, rows)
}

func (f *fakeArcher) content(w http.ResponseWriter, r *http.Request) {
	f.searches.Add(1)
	rows := []map[string]any{}
	switch r.URL.Query().Get("$filter") {
	case "Ticket_Number eq 'INC-12345'":
		rows = append(rows, map[string]any{"Incidents_Id": 222, "Ticket_Number": "INC-12345"})
	case "Ticket_Number eq 'INC-12345' or Ticket_Number eq 'INC-0'":
		rows = append(rows, map[string]any{"Incidents_Id": 222, "Ticket_Number": "INC-12345"})
	}
	writeJSON(w, map[string]any{"value": rows})
}

func jsonNumber(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
