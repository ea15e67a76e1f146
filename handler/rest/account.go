package rest

import (
	"errors"
	"net/http"
	"time"

	"forge/core"
	"forge/handler/render"
	"forge/handler/views"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi"
)

func accountHandler(collateral, debt core.ILedgerReader, guard core.ISolvencyService, rewards core.IRewardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		address := chi.URLParam(r, "address")
		if !govalidator.IsUUID(address) {
			render.BadRequest(w, errors.New("invalid address"))
			return
		}

		collateralEntries, err := collateral.EntriesOf(ctx, address)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		debtEntries, err := debt.EntriesOf(ctx, address)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		collateralValue, err := collateral.TotalOf(ctx, address)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		debtValue, err := debt.TotalOf(ctx, address)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		ratio, _, err := guard.CollateralRatioOf(ctx, address)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		earned, err := rewards.Earned(ctx, address, time.Now())
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		eligible, err := guard.RewardIsEligible(ctx, address)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		render.JSON(w, &views.Account{
			Address:         address,
			Collateral:      collateralEntries,
			Debt:            debtEntries,
			CollateralValue: collateralValue,
			DebtValue:       debtValue,
			CollateralRatio: ratio,
			RewardEarned:    earned,
			RewardEligible:  eligible,
		})
	}
}
