package server_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/appleboy/gofight/v2"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEntriesUnauthorized(t *testing.T) {
	engine, _, r, cleanup := setup()
	defer cleanup()

	r.GET("/api/entries").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth", "message":"Invalid login credentials."}}`, r.Body.String())
	})

	r.GET("/api/entries").SetHeader(gofight.H{
		"Authorization": "Bearer not-a-token",
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth", "message":"Invalid login credentials."}}`, r.Body.String())
	})
}

func TestRequestEntryCreate(t *testing.T) {
	engine, ctrl, r, cleanup := setup()
	defer cleanup()

	header := authorization(ctrl, "identity|george")

	r.POST("/api/entries").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"message":"Request body can't be empty"}}`, r.Body.String())
	})

	r.POST("/api/entries").SetHeader(header).SetJSON(gofight.D{
		"title": "   ",
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"validation", "message":"Title can't be blank."}}`, r.Body.String())
	})

	r.POST("/api/entries").SetHeader(header).SetJSON(gofight.D{
		"title":     "First entry",
		"tags":      []string{"mood", "daily"},
		"video_url": "1700000000000-deadbeef",
		"duration":  "1:05",
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		var entry model.Entry
		err := json.Unmarshal(r.Body.Bytes(), &entry)
		require.NoError(t, err)
		assert.NotEmpty(t, entry.ID)
		assert.NotNil(t, entry.CreatedAt)
		assert.Equal(t, "First entry", entry.Title)
		assert.Equal(t, []string{"mood", "daily"}, entry.Tags)
		assert.Equal(t, "1700000000000-deadbeef", entry.VideoKey)
		assert.Equal(t, "1:05", entry.Duration)
	})

	// Defaults: no tags, no video.
	r.POST("/api/entries").SetHeader(header).SetJSON(gofight.D{
		"title": "Second entry",
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		var entry model.Entry
		err := json.Unmarshal(r.Body.Bytes(), &entry)
		require.NoError(t, err)
		assert.Equal(t, []string{}, entry.Tags)
		assert.Equal(t, model.NoVideo, entry.VideoKey)
		assert.False(t, entry.HasVideo())
	})
}

func TestRequestEntryList(t *testing.T) {
	engine, ctrl, r, cleanup := setup()
	defer cleanup()

	header := authorization(ctrl, "identity|george")

	r.GET("/api/entries").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `[]`, r.Body.String())
	})

	for _, title := range []string{"oldest", "middle", "newest"} {
		r.POST("/api/entries").SetHeader(header).SetJSON(gofight.D{
			"title": title,
		}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusCreated, r.Code)
		})
	}

	r.GET("/api/entries").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		var entries []*model.Entry
		err := json.Unmarshal(r.Body.Bytes(), &entries)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "newest", entries[0].Title)
		assert.Equal(t, "middle", entries[1].Title)
		assert.Equal(t, "oldest", entries[2].Title)
	})

	// Entries are partitioned per identity.
	r.GET("/api/entries").SetHeader(authorization(ctrl, "identity|irene")).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `[]`, r.Body.String())
	})
}

func TestRequestEntryShow(t *testing.T) {
	engine, ctrl, r, cleanup := setup()
	defer cleanup()

	header := authorization(ctrl, "identity|george")

	r.GET("/api/entries/d989ccc9-15c6-475e-839b-1690bd07d073").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"not-found", "message":"Entry not found."}}`, r.Body.String())
	})

	var id string
	r.POST("/api/entries").SetHeader(header).SetJSON(gofight.D{
		"title": "An entry",
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		require.Equal(t, http.StatusCreated, r.Code)

		var entry model.Entry
		require.NoError(t, json.Unmarshal(r.Body.Bytes(), &entry))
		id = entry.ID
	})

	r.GET("/api/entries/"+id).SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		var entry model.Entry
		require.NoError(t, json.Unmarshal(r.Body.Bytes(), &entry))
		assert.Equal(t, "An entry", entry.Title)
	})

	// Another identity can't read it.
	r.GET("/api/entries/"+id).SetHeader(authorization(ctrl, "identity|irene")).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestRequestEntryDelete(t *testing.T) {
	engine, ctrl, r, cleanup := setup()
	defer cleanup()

	header := authorization(ctrl, "identity|george")

	r.DELETE("/api/entries/d989ccc9-15c6-475e-839b-1690bd07d073").SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"not-found", "message":"Entry not found."}}`, r.Body.String())
	})

	var id string
	r.POST("/api/entries").SetHeader(header).SetJSON(gofight.D{
		"title": "Doomed entry",
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		require.Equal(t, http.StatusCreated, r.Code)

		var entry model.Entry
		require.NoError(t, json.Unmarshal(r.Body.Bytes(), &entry))
		id = entry.ID
	})

	r.DELETE("/api/entries/"+id).SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNoContent, r.Code)
	})

	r.GET("/api/entries/"+id).SetHeader(header).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}
