package rest

import (
	"errors"
	"net/http"

	"forge/core"
	"forge/handler/render"

	"github.com/go-chi/chi"
)

// Handle handle rest api request
func Handle(
	collateral core.ILedgerReader,
	debt core.ILedgerReader,
	guard core.ISolvencyService,
	rewards core.IRewardService,
	auctionStore core.IAuctionStore,
	auctions core.IAuctionService,
	tokenStore core.ITokenStore,
	priceStore core.IPriceStore,
	params core.IParamService,
) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/accounts/{address}", accountHandler(collateral, debt, guard, rewards))
	router.Get("/auctions", auctionsHandler(auctionStore, auctions))
	router.Get("/auctions/{nonce}", auctionHandler(auctionStore, auctions))
	router.Get("/tokens", tokensHandler(tokenStore))
	router.Get("/prices", pricesHandler(priceStore))
	router.Get("/params", paramsHandler(params))

	return router
}
