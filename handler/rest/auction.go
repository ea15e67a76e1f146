package rest

import (
	"net/http"
	"strconv"
	"time"

	"forge/core"
	"forge/handler/param"
	"forge/handler/render"
	"forge/handler/views"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

func auctionsHandler(store core.IAuctionStore, auctions core.IAuctionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var params struct {
			Open  bool `json:"open"`
			Limit int  `json:"limit"`
		}

		if err := param.Binding(r, &params); err != nil {
			render.BadRequest(w, err)
			return
		}

		var (
			list []*core.Auction
			err  error
		)
		if params.Open {
			list, err = store.ListOpen(ctx)
		} else {
			list, err = store.List(ctx, params.Limit)
		}
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		auctionViews := make([]*views.Auction, 0, len(list))
		for _, auction := range list {
			view := &views.Auction{Auction: *auction}
			if auction.State == core.AuctionStateOpen {
				ratio, err := auctions.OfferingRatio(ctx, time.Since(auction.StartedAt))
				if err != nil {
					ratio = decimal.Zero
				}
				view.OfferingRatio = ratio
			}

			auctionViews = append(auctionViews, view)
		}

		render.JSON(w, auctionViews)
	}
}

func auctionHandler(store core.IAuctionStore, auctions core.IAuctionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		nonce, err := strconv.ParseUint(chi.URLParam(r, "nonce"), 10, 64)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		auction, err := store.Find(ctx, nonce)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		if auction.ID == 0 {
			render.Coded(w, core.ErrAuctionNotFound)
			return
		}

		view := &views.Auction{Auction: *auction}
		if auction.State == core.AuctionStateOpen {
			ratio, err := auctions.OfferingRatio(ctx, time.Since(auction.StartedAt))
			if err != nil {
				render.BadRequest(w, err)
				return
			}
			view.OfferingRatio = ratio
		}

		if view.Lots, err = store.Lots(ctx, auction.ID); err != nil {
			render.BadRequest(w, err)
			return
		}

		if view.Bids, err = store.Bids(ctx, auction.ID); err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, view)
	}
}
