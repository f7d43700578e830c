package admin

import (
	"errors"
	"net/http"

	"phishcheck/features/dataset"
	"phishcheck/features/entries"
	"phishcheck/features/entries/enums"
	"phishcheck/features/web/handlers/response"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type DatasetHandler struct {
	Store *dataset.Store
}

func NewDatasetHandler(store *dataset.Store) *DatasetHandler {
	return &DatasetHandler{Store: store}
}

func (h *DatasetHandler) Stats(c echo.Context) error {
	return response.Success(c, NewDatasetStats(h.Store.Snapshot()))
}

func (h *DatasetHandler) List(c echo.Context) error {
	input := new(ListInput)
	if err := c.Bind(input); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := c.Validate(input); err != nil {
		return response.BadRequest(c, err.Error())
	}

	d := h.Store.Snapshot()
	list := d.Entries()
	if input.Scope != "" || input.Label != "" {
		filtered := list[:0]
		for _, e := range list {
			if input.Scope != "" && e.Scope.String() != input.Scope {
				continue
			}
			if input.Label != "" && e.Label.String() != input.Label {
				continue
			}
			filtered = append(filtered, e)
		}
		list = filtered
	}

	return response.Success(c, EntriesPayload{
		Version: d.Version(),
		Count:   len(list),
		Entries: list,
	})
}

// Reload re-reads the dataset file. A failed load leaves the serving
// version in place and answers 500.
func (h *DatasetHandler) Reload(c echo.Context) error {
	d, err := h.Store.Reload(c.Request().Context())
	if err != nil {
		return response.ErrorWithDetails(c, http.StatusInternalServerError, "Failed to reload dataset", map[string]any{
			"reason":          err.Error(),
			"serving_version": h.Store.Snapshot().Version(),
		})
	}

	log.Info().Str("version", d.Version()).Msg("Dataset reloaded via admin endpoint")
	return response.Success(c, NewDatasetStats(d))
}

func (h *DatasetHandler) Upsert(c echo.Context) error {
	input := new(EntryInput)
	if err := c.Bind(input); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := c.Validate(input); err != nil {
		return response.ErrorWithDetails(c, http.StatusBadRequest, "Invalid entry", err.Error())
	}

	entry, err := input.Entry()
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	d, replaced, err := h.Store.Upsert(c.Request().Context(), entry)
	if err != nil {
		return storeError(c, err)
	}

	stored, _ := lookup(d, entry)
	payload := UpsertPayload{Entry: stored, Replaced: replaced, Version: d.Version()}
	if replaced {
		return response.Success(c, payload)
	}
	return response.Created(c, payload)
}

func (h *DatasetHandler) Remove(c echo.Context) error {
	input := new(RemoveInput)
	if err := c.Bind(input); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := c.Validate(input); err != nil {
		return response.ErrorWithDetails(c, http.StatusBadRequest, "Invalid entry key", err.Error())
	}

	scope, err := enums.ScopeString(input.Scope)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	d, err := h.Store.Remove(c.Request().Context(), input.Pattern, scope)
	if err != nil {
		return storeError(c, err)
	}

	return response.Success(c, NewDatasetStats(d))
}

func storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, dataset.ErrEntryNotFound):
		return response.NotFound(c, "Entry not found", err.Error())
	case errors.Is(err, dataset.ErrInvalidPattern), errors.Is(err, dataset.ErrInvalidScope):
		return response.ErrorWithDetails(c, http.StatusBadRequest, "Invalid entry", err.Error())
	default:
		log.Error().Err(err).Msg("Dataset write failed")
		return response.ErrorWithDetails(c, http.StatusInternalServerError, "Failed to update dataset", err.Error())
	}
}

// lookup finds the stored (normalized) form of e in d.
func lookup(d *dataset.Dataset, e entries.Entry) (entries.Entry, bool) {
	normalized, err := dataset.NormalizeEntry(e)
	if err != nil {
		return e, false
	}
	if normalized.Scope == enums.ScopeDomain {
		return d.LookupDomain(normalized.Pattern)
	}
	return d.LookupExact(normalized.Pattern)
}
