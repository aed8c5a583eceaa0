package aiadvisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitfantasy/novaboard-scheduler/internal/domain"
)

func TestAdviseParsesStructuredHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hint := Hint{
			OrderedSalesOrderIDs: []string{"SO-002", "SO-001"},
			PriorityUpdates:      map[string]int{"SO-002": 1},
			Explanation:          "rush the IndustrialCore order per operator request",
		}
		content, _ := json.Marshal(hint)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": string(content)}},
			},
		})
	}))
	defer srv.Close()

	a := New(srv.URL, "key", "gpt-5.2", 5*time.Second)
	hint, err := a.Advise(context.Background(), Request{
		OperatorText: "prioritise SO-002",
		EDFBaseline:  []string{"SO-001", "SO-002"},
	})
	if err != nil {
		t.Fatalf("Advise returned error: %v", err)
	}
	if len(hint.OrderedSalesOrderIDs) != 2 || hint.OrderedSalesOrderIDs[0] != "SO-002" {
		t.Fatalf("unexpected hint ordering: %+v", hint.OrderedSalesOrderIDs)
	}
	if hint.PriorityUpdates["SO-002"] != 1 {
		t.Fatalf("expected priority update for SO-002, got %+v", hint.PriorityUpdates)
	}
}

func TestAdviseWrapsNonOKStatusAsAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := New(srv.URL, "key", "gpt-5.2", 5*time.Second)
	_, err := a.Advise(context.Background(), Request{})
	if err == nil {
		t.Fatalf("expected an error on non-200 status")
	}
	var aiErr *domain.AIError
	if !errorsAs(err, &aiErr) {
		t.Fatalf("expected a domain.AIError, got %T: %v", err, err)
	}
}

func TestAdviseWrapsMalformedContentAsAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "not json"}},
			},
		})
	}))
	defer srv.Close()

	a := New(srv.URL, "key", "gpt-5.2", 5*time.Second)
	_, err := a.Advise(context.Background(), Request{})
	if err == nil {
		t.Fatalf("expected an error for malformed hint content")
	}
}

// errorsAs avoids importing errors in every test file for a one-off check.
func errorsAs(err error, target **domain.AIError) bool {
	for err != nil {
		if e, ok := err.(*domain.AIError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
