package rest

import (
	"net/http"

	"forge/core"
	"forge/handler/render"
	"forge/handler/views"
)

func tokensHandler(store core.ITokenStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokens, err := store.All(r.Context())
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, tokens)
	}
}

func pricesHandler(store core.IPriceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prices, err := store.All(r.Context())
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, prices)
	}
}

func paramsHandler(params core.IParamService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, err := params.Current(r.Context())
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, views.NewParams(current))
	}
}
