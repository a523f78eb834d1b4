package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"planline/internal/engine"
	"planline/internal/repo"
)

func parseRFC3339(field string, s *string) (*time.Time, huma.StatusError) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid %s timestamp %q", field, *s), nil)
	}
	return &t, nil
}

// createItemFromBody backs the unified item route and the category
// create routes; all of them share body, auth, and timestamp handling.
func createItemFromBody(ctx context.Context, e engine.Engine, body CreateItemRequest) (ItemResponse, error) {
	if len(bodyBytes(ctx)) == 0 {
		return ItemResponse{}, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
	}
	actorID, authErr := actorIDFromContext(ctx)
	if authErr != nil {
		return ItemResponse{}, authErr
	}
	start, serr := parseRFC3339("start", body.Start)
	if serr != nil {
		return ItemResponse{}, serr
	}
	end, eerr := parseRFC3339("end", body.End)
	if eerr != nil {
		return ItemResponse{}, eerr
	}
	opts := engine.ItemCreateOptions{
		Title:   body.Title,
		Kind:    body.Kind,
		Start:   start,
		End:     end,
		ActorID: actorID,
	}
	if body.ID != nil {
		opts.ID = *body.ID
	}
	if body.KeyAreaID != nil {
		opts.KeyAreaID = *body.KeyAreaID
	}
	if body.Notes != nil {
		opts.Notes = *body.Notes
	}
	it, err := e.CreateItem(ctx, opts)
	if err != nil {
		return ItemResponse{}, handleError(err)
	}
	return itemResponse(it), nil
}

func patchItemFromBody(ctx context.Context, e engine.Engine, itemID string, body UpdateItemRequest) (ItemResponse, error) {
	if len(bodyBytes(ctx)) == 0 {
		return ItemResponse{}, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
	}
	actorID, authErr := actorIDFromContext(ctx)
	if authErr != nil {
		return ItemResponse{}, authErr
	}
	start, serr := parseRFC3339("start", body.Start)
	if serr != nil {
		return ItemResponse{}, serr
	}
	end, eerr := parseRFC3339("end", body.End)
	if eerr != nil {
		return ItemResponse{}, eerr
	}
	it, err := e.UpdateItem(ctx, engine.ItemUpdateOptions{
		ID:            itemID,
		Title:         body.Title,
		Kind:          body.Kind,
		Start:         start,
		End:           end,
		ClearSchedule: body.ClearSchedule,
		KeyAreaID:     body.KeyAreaID,
		Notes:         body.Notes,
		Done:          body.Done,
		ActorID:       actorID,
	})
	if err != nil {
		return ItemResponse{}, handleError(err)
	}
	return itemResponse(it), nil
}

func registerItems(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-item",
		Method:        http.MethodPost,
		Path:          "/calendar/items",
		Summary:       "Create calendar item",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateItemRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		resp, err := createItemFromBody(ctx, e, input.Body)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-items",
		Method:      http.MethodGet,
		Path:        "/calendar/items",
		Summary:     "List calendar items",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		From            string `query:"from" format:"date-time"`
		To              string `query:"to" format:"date-time"`
		Kind            string `query:"kind"`
		KeyAreaID       string `query:"key_area_id"`
		Limit           int    `query:"limit" example:"100"`
		CursorCreatedAt string `query:"cursor_created_at"`
		CursorID        string `query:"cursor_id"`
	}) (*struct {
		Body ItemListResponse `json:"body"`
	}, error) {
		f := repo.ItemFilters{
			From:            input.From,
			To:              input.To,
			KeyAreaID:       input.KeyAreaID,
			Limit:           input.Limit,
			CursorCreatedAt: input.CursorCreatedAt,
			CursorID:        input.CursorID,
		}
		if input.Kind != "" {
			f.Kinds = []string{input.Kind}
		}
		items, err := e.ListItems(ctx, f)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemListResponse `json:"body"`
		}{Body: ItemListResponse{Items: mapItems(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-unattached",
		Method:      http.MethodGet,
		Path:        "/calendar/unattached",
		Summary:     "Tray items without timestamps",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ItemListResponse `json:"body"`
	}, error) {
		items, err := e.Repo.ListUnattached(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemListResponse `json:"body"`
		}{Body: ItemListResponse{Items: mapItems(items)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/calendar/items/{item_id}",
		Summary:     "Get calendar item",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		it, err := e.GetItem(ctx, input.ItemID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: itemResponse(it)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-item",
		Method:      http.MethodPatch,
		Path:        "/calendar/items/{item_id}",
		Summary:     "Update calendar item",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnauthorized,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		ItemID string            `path:"item_id"`
		Body   UpdateItemRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		resp, err := patchItemFromBody(ctx, e, input.ItemID, input.Body)
		if err != nil {
			return nil, err
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-item",
		Method:      http.MethodDelete,
		Path:        "/calendar/items/{item_id}",
		Summary:     "Delete calendar item",
		Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
	}, func(ctx context.Context, input *struct {
		ItemID string `path:"item_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteItem(ctx, input.ItemID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "quick-create",
		Method:        http.MethodPost,
		Path:          "/calendar/quick",
		Summary:       "Quick-create from a click on the grid",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusUnprocessableEntity,
		},
	}, func(ctx context.Context, input *struct {
		Body QuickCreateRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		at, err := time.Parse(time.RFC3339, input.Body.At)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid at timestamp %q", input.Body.At), nil)
		}
		it, cerr := e.QuickCreate(ctx, engine.QuickCreateOptions{
			Title:   input.Body.Title,
			Kind:    input.Body.Kind,
			At:      at,
			ActorID: actorID,
		})
		if cerr != nil {
			return nil, handleError(cerr)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: itemResponse(it)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "drop-item",
		Method:      http.MethodPost,
		Path:        "/calendar/items/{item_id}/drop",
		Summary:     "Drop an item onto a day and time slot",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusUnauthorized,
		},
	}, func(ctx context.Context, input *struct {
		ItemID string      `path:"item_id"`
		Body   DropRequest `json:"body"`
	}) (*struct {
		Body ItemResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		day, err := time.Parse("2006-01-02", input.Body.Day)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", fmt.Sprintf("invalid day %q", input.Body.Day), nil)
		}
		it, derr := e.Drop(ctx, engine.DropOptions{
			ItemID:     input.ItemID,
			Day:        day,
			SlotMinute: input.Body.SlotMinute,
			ActorID:    actorID,
		})
		if derr != nil {
			return nil, handleError(derr)
		}
		return &struct {
			Body ItemResponse `json:"body"`
		}{Body: itemResponse(it)}, nil
	})
}
