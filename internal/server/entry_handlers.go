package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mindmirror/mindmirror/internal/apierror"
	"github.com/mindmirror/mindmirror/internal/database"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/pkg/errors"
)

// entry contains all entry handlers.
type entry struct {
	db database.Client
}

type createEntryParams struct {
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	VideoKey string   `json:"video_url"`
	Duration string   `json:"duration"`
}

///// Create
////
//

// Create stores a new journal entry. The video itself never reaches the
// server; video_url only carries the blob key of the client's local store.
func (h *entry) Create(c echo.Context) error {
	// Filter params
	var params createEntryParams
	if err := c.Bind(&params); err != nil {
		return c.JSON(http.StatusBadRequest, apierror.New("Could not get entry's params."))
	}

	if strings.TrimSpace(params.Title) == "" {
		return c.JSON(http.StatusBadRequest, apierror.NewWithTagCode(
			http.StatusBadRequest,
			"validation",
			"Title can't be blank.",
		))
	}

	entry := model.NewEntry()
	entry.UserID = currentUser(c).ID
	entry.Title = params.Title
	entry.Duration = params.Duration
	if params.Tags != nil {
		entry.Tags = params.Tags
	}
	if params.VideoKey != "" {
		entry.VideoKey = params.VideoKey
	}

	if err := h.db.Save(entry); err != nil {
		return errors.Wrap(err, "could not persist entry")
	}

	return c.JSON(http.StatusCreated, entry)
}

///// List
////
//

// List renders all the entries of the current user, newest first.
func (h *entry) List(c echo.Context) error {
	entries, err := h.db.FindEntriesByUserID(currentUser(c).ID)
	if err != nil {
		return errors.Wrap(err, "could not fetch entries")
	}

	return c.JSON(http.StatusOK, entries)
}

///// Show
////
//

// Show renders one entry of the current user.
func (h *entry) Show(c echo.Context) error {
	entry, err := h.db.FindEntryByUserID(c.Param("id"), currentUser(c).ID)
	if err != nil {
		if h.db.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, apierror.NewWithTagCode(
				http.StatusNotFound,
				"not-found",
				"Entry not found.",
			))
		}
		return errors.Wrap(err, "could not fetch entry")
	}

	return c.JSON(http.StatusOK, entry)
}

///// Delete
////
//

// Delete removes one entry of the current user. Only the metadata record is
// deleted here; the client cascades to its local blob once this succeeds.
func (h *entry) Delete(c echo.Context) error {
	user := currentUser(c)

	if _, err := h.db.FindEntryByUserID(c.Param("id"), user.ID); err != nil {
		if h.db.IsNotFound(err) {
			return c.JSON(http.StatusNotFound, apierror.NewWithTagCode(
				http.StatusNotFound,
				"not-found",
				"Entry not found.",
			))
		}
		return errors.Wrap(err, "could not fetch entry")
	}

	if err := h.db.DeleteEntry(c.Param("id"), user.ID); err != nil {
		return errors.Wrap(err, "could not delete entry")
	}

	return c.NoContent(http.StatusNoContent)
}
