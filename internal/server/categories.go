package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"planline/internal/engine"
	"planline/internal/repo"
)

func kindInCategory(category, kind string) bool {
	kinds, ok := repo.CategoryKinds(category)
	if !ok {
		return false
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// registerCategories exposes the kind categories as their own routes:
// events (scheduled blocks), todos (tray kinds), and appointments. The
// category routes are views over the same item store; an item created
// through /calendar/items shows up under its category as well.
func registerCategories(api huma.API, e engine.Engine) {
	for _, category := range []string{"events", "todos", "appointments"} {
		category := category
		kinds, _ := repo.CategoryKinds(category)
		huma.Register(api, huma.Operation{
			OperationID: "list-" + category,
			Method:      http.MethodGet,
			Path:        "/calendar/" + category,
			Summary:     "List " + category,
			Errors:      []int{http.StatusBadRequest},
		}, func(ctx context.Context, input *struct {
			From            string `query:"from" format:"date-time"`
			To              string `query:"to" format:"date-time"`
			KeyAreaID       string `query:"key_area_id"`
			Limit           int    `query:"limit" example:"100"`
			CursorCreatedAt string `query:"cursor_created_at"`
			CursorID        string `query:"cursor_id"`
		}) (*struct {
			Body ItemListResponse `json:"body"`
		}, error) {
			items, err := e.ListItems(ctx, repo.ItemFilters{
				From:            input.From,
				To:              input.To,
				Kinds:           kinds,
				KeyAreaID:       input.KeyAreaID,
				Limit:           input.Limit,
				CursorCreatedAt: input.CursorCreatedAt,
				CursorID:        input.CursorID,
			})
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body ItemListResponse `json:"body"`
			}{Body: ItemListResponse{Items: mapItems(items)}}, nil
		})
	}

	for _, category := range []string{"events", "appointments"} {
		category := category
		defaultKind := "custom"
		if category == "appointments" {
			defaultKind = "appointment"
		}
		huma.Register(api, huma.Operation{
			OperationID:   "create-" + category[:len(category)-1],
			Method:        http.MethodPost,
			Path:          "/calendar/" + category,
			Summary:       "Create " + category[:len(category)-1],
			DefaultStatus: http.StatusCreated,
			Errors: []int{
				http.StatusBadRequest,
				http.StatusUnauthorized,
				http.StatusUnprocessableEntity,
			},
		}, func(ctx context.Context, input *struct {
			Body CreateItemRequest `json:"body"`
		}) (*struct {
			Body ItemResponse `json:"body"`
		}, error) {
			body := input.Body
			if body.Kind == "" {
				body.Kind = defaultKind
			}
			if !kindInCategory(category, body.Kind) {
				return nil, newAPIError(http.StatusBadRequest, "bad_request",
					fmt.Sprintf("kind %q is not in category %s", body.Kind, category), nil)
			}
			resp, err := createItemFromBody(ctx, e, body)
			if err != nil {
				return nil, err
			}
			return &struct {
				Body ItemResponse `json:"body"`
			}{Body: resp}, nil
		})

		huma.Register(api, huma.Operation{
			OperationID: "get-" + category[:len(category)-1],
			Method:      http.MethodGet,
			Path:        "/calendar/" + category + "/{item_id}",
			Summary:     "Get " + category[:len(category)-1],
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
			if !kindInCategory(category, it.Kind) {
				return nil, newAPIError(http.StatusNotFound, "not_found",
					fmt.Sprintf("no %s with id %s", category[:len(category)-1], input.ItemID), nil)
			}
			return &struct {
				Body ItemResponse `json:"body"`
			}{Body: itemResponse(it)}, nil
		})

		huma.Register(api, huma.Operation{
			OperationID: "update-" + category[:len(category)-1],
			Method:      http.MethodPatch,
			Path:        "/calendar/" + category + "/{item_id}",
			Summary:     "Update " + category[:len(category)-1],
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
			it, err := e.GetItem(ctx, input.ItemID)
			if err != nil {
				return nil, handleError(err)
			}
			if !kindInCategory(category, it.Kind) {
				return nil, newAPIError(http.StatusNotFound, "not_found",
					fmt.Sprintf("no %s with id %s", category[:len(category)-1], input.ItemID), nil)
			}
			if input.Body.Kind != nil && !kindInCategory(category, *input.Body.Kind) {
				return nil, newAPIError(http.StatusBadRequest, "bad_request",
					fmt.Sprintf("kind %q is not in category %s", *input.Body.Kind, category), nil)
			}
			resp, err := patchItemFromBody(ctx, e, input.ItemID, input.Body)
			if err != nil {
				return nil, err
			}
			return &struct {
				Body ItemResponse `json:"body"`
			}{Body: resp}, nil
		})

		huma.Register(api, huma.Operation{
			OperationID: "delete-" + category[:len(category)-1],
			Method:      http.MethodDelete,
			Path:        "/calendar/" + category + "/{item_id}",
			Summary:     "Delete " + category[:len(category)-1],
			Errors:      []int{http.StatusNotFound, http.StatusUnauthorized},
		}, func(ctx context.Context, input *struct {
			ItemID string `path:"item_id"`
		}) (*struct{}, error) {
			actorID, authErr := actorIDFromContext(ctx)
			if authErr != nil {
				return nil, authErr
			}
			it, err := e.GetItem(ctx, input.ItemID)
			if err != nil {
				return nil, handleError(err)
			}
			if !kindInCategory(category, it.Kind) {
				return nil, newAPIError(http.StatusNotFound, "not_found",
					fmt.Sprintf("no %s with id %s", category[:len(category)-1], input.ItemID), nil)
			}
			if err := e.DeleteItem(ctx, input.ItemID, actorID); err != nil {
				return nil, handleError(err)
			}
			return &struct{}{}, nil
		})
	}
}
