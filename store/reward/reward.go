package reward

import (
	"context"

	"forge/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

const stateID = 1

type rewardStore struct {
	db *db.DB
}

// New new reward store
func New(db *db.DB) core.IRewardStore {
	return &rewardStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		if err := db.Update().Model(core.RewardState{}).AutoMigrate(core.RewardState{}).Error; err != nil {
			return err
		}

		if err := db.Update().Model(core.AccountReward{}).AutoMigrate(core.AccountReward{}).Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *rewardStore) State(ctx context.Context) (*core.RewardState, error) {
	var state core.RewardState
	if err := s.db.View().Where("id=?", stateID).First(&state).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.RewardState{}, nil
		}
		return nil, err
	}

	return &state, nil
}

func (s *rewardStore) SaveState(ctx context.Context, tx *db.DB, state *core.RewardState) error {
	if state.ID == 0 {
		state.ID = stateID
		return tx.Update().Where("id=?", stateID).FirstOrCreate(state).Error
	}

	version := state.Version
	state.Version++
	updates := map[string]interface{}{
		"rate_per_second":         state.RatePerSecond,
		"epoch_end":               state.EpochEnd,
		"last_update":             state.LastUpdate,
		"reward_per_token_stored": state.RewardPerTokenStored,
		"notified_total":          state.NotifiedTotal,
		"claimed_total":           state.ClaimedTotal,
		"forfeited_total":         state.ForfeitedTotal,
		"version":                 state.Version,
	}
	update := tx.Update().Model(core.RewardState{}).Where("id=? and version=?", stateID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}

func (s *rewardStore) FindAccount(ctx context.Context, address string) (*core.AccountReward, error) {
	var account core.AccountReward
	if err := s.db.View().Where("address=?", address).First(&account).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return &core.AccountReward{Address: address}, nil
		}
		return nil, err
	}

	return &account, nil
}

func (s *rewardStore) SaveAccount(ctx context.Context, tx *db.DB, account *core.AccountReward) error {
	if account.ID == 0 {
		return tx.Update().Where("address=?", account.Address).FirstOrCreate(account).Error
	}

	version := account.Version
	account.Version++
	updates := map[string]interface{}{
		"reward_per_token_paid": account.RewardPerTokenPaid,
		"stashed":               account.Stashed,
		"version":               account.Version,
	}
	update := tx.Update().Model(core.AccountReward{}).Where("id=? and version=?", account.ID, version).Updates(updates)
	if update.Error != nil {
		return update.Error
	}
	if update.RowsAffected == 0 {
		return core.ErrStaleVersion
	}

	return nil
}

func (s *rewardStore) Accounts(ctx context.Context) ([]*core.AccountReward, error) {
	var accounts []*core.AccountReward
	if err := s.db.View().Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}

	return accounts, nil
}
