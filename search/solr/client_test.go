package solr_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trc-platform/trc/search"
	. "github.com/trc-platform/trc/search/solr" //nolint:revive
)

type capturedRequest struct {
	method string
	path   string
	query  map[string][]string
	body   string
}

// solrServerStub records every request and answers with the given status and body.
type solrServerStub struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	response string
}

func (s *solrServerStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, capturedRequest{
		method: r.Method,
		path:   r.URL.Path,
		query:  r.URL.Query(),
		body:   string(body),
	})
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(s.status)
	_, _ = w.Write([]byte(s.response))
}

func (s *solrServerStub) lastRequest(t *testing.T) capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)

	return s.requests[len(s.requests)-1]
}

func givenSolr(t *testing.T, status int, response string, options ...Option) (*Client, *solrServerStub) {
	stub := &solrServerStub{status: status, response: response}
	server := httptest.NewServer(stub)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/solr/", options...)
	require.NoError(t, err, "error in test setup")

	return client, stub
}

func Test_Index_PostsDocumentsWithCommitWithin(t *testing.T) {
	// setup
	client, stub := givenSolr(t, http.StatusOK, `{"responseHeader":{"status":0}}`, WithCommitWithin(1500*time.Millisecond))

	// act
	err := client.Index(context.Background(), "works", []search.Document{{"id": "w1", "title": "Emma"}})

	// assert
	require.NoError(t, err)
	req := stub.lastRequest(t)
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/solr/works/update", req.path)
	assert.Equal(t, []string{"1500"}, req.query["commitWithin"])
	assert.JSONEq(t, `[{"id":"w1","title":"Emma"}]`, req.body)
}

func Test_Index_When_NoDocuments(t *testing.T) {
	client, stub := givenSolr(t, http.StatusOK, `{}`)

	err := client.Index(context.Background(), "works", nil)

	assert.NoError(t, err)
	assert.Empty(t, stub.requests)
}

func Test_Delete_PostsDeleteByID(t *testing.T) {
	client, stub := givenSolr(t, http.StatusOK, `{}`, WithCommitWithin(0))

	err := client.Delete(context.Background(), "persons", []string{"p1", "p2"})

	require.NoError(t, err)
	req := stub.lastRequest(t)
	assert.Equal(t, "/solr/persons/update", req.path)
	assert.NotContains(t, req.query, "commitWithin")
	assert.JSONEq(t, `{"delete":["p1","p2"]}`, req.body)
}

func Test_Query_EncodesParametersAndDecodesResponse(t *testing.T) {
	// setup
	client, stub := givenSolr(t, http.StatusOK, `{
		"responseHeader": {"status": 0},
		"response": {"numFound": 42, "start": 10, "docs": [{"id": "w1", "title": "Emma"}]}
	}`)

	// act
	result, err := client.Query(context.Background(), "works", Query{
		Q:       "title:Emma",
		Filters: []string{"entry_type:work", "version:[2 TO *]"},
		Start:   10,
		Rows:    5,
		Sort:    "created asc",
		Fields:  []string{"id", "title"},
	})

	// assert
	require.NoError(t, err)
	assert.Equal(t, int64(42), result.NumFound)
	assert.Equal(t, int64(10), result.Start)
	require.Len(t, result.Docs, 1)
	assert.Equal(t, "Emma", result.Docs[0]["title"])

	req := stub.lastRequest(t)
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/solr/works/select", req.path)
	assert.Equal(t, []string{"title:Emma"}, req.query["q"])
	assert.Equal(t, []string{"entry_type:work", "version:[2 TO *]"}, req.query["fq"])
	assert.Equal(t, []string{"10"}, req.query["start"])
	assert.Equal(t, []string{"5"}, req.query["rows"])
	assert.Equal(t, []string{"created asc"}, req.query["sort"])
	assert.Equal(t, []string{"id,title"}, req.query["fl"])
}

func Test_Query_DefaultsToMatchAll(t *testing.T) {
	client, stub := givenSolr(t, http.StatusOK, `{"response":{"numFound":0,"start":0}}`)

	result, err := client.Query(context.Background(), "notes", Query{})

	require.NoError(t, err)
	assert.Empty(t, result.Docs)
	assert.NotNil(t, result.Docs)
	assert.Equal(t, []string{"*:*"}, stub.lastRequest(t).query["q"])
}

func Test_Request_When_SolrAnswersWithError(t *testing.T) {
	client, _ := givenSolr(t, http.StatusBadRequest, `{"error":{"msg":"undefined field titel","code":400}}`)

	_, err := client.Query(context.Background(), "works", Query{Q: "titel:x"})

	assert.ErrorIs(t, err, ErrSolrRequestFailed)
	assert.ErrorContains(t, err, "undefined field titel")
	assert.ErrorContains(t, err, "400")
}

func Test_Request_When_ErrorBodyIsNotJSON(t *testing.T) {
	client, _ := givenSolr(t, http.StatusBadGateway, "upstream down")

	err := client.Ping(context.Background(), "works")

	assert.ErrorIs(t, err, ErrSolrRequestFailed)
	assert.ErrorContains(t, err, "upstream down")
}

func Test_Request_When_ServerIsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client, err := New(server.URL)
	require.NoError(t, err)

	err = client.Index(context.Background(), "works", []search.Document{{"id": "w1"}})

	assert.ErrorIs(t, err, ErrSolrRequestFailed)
}

func Test_Request_When_CoreIsEmpty(t *testing.T) {
	client, _ := givenSolr(t, http.StatusOK, `{}`)

	err := client.Commit(context.Background(), "")

	assert.ErrorIs(t, err, ErrEmptyCore)
}

func Test_New_When_BaseURLIsEmpty(t *testing.T) {
	_, err := New("/")

	assert.ErrorIs(t, err, ErrEmptyBaseURL)
}
