package settlement

import (
	"fmt"

	"oikonomos/internal/economy"
	"oikonomos/internal/model"
)

// ToRecord converts a settlement into its persistence record. Version fields
// are stamped by the storage layer on save.
func ToRecord(name string, s Settlement) model.SettlementRecord {
	record := model.SettlementRecord{
		Name:            name,
		Size:            s.Population(),
		BaseYields:      yieldsToRecords(s.baseYields),
		PerWorkerYields: yieldsToRecords(s.perWorker),
	}
	for _, slot := range s.roster {
		record.Assets = append(record.Assets, assetToRecord(slot.Asset))
		if slot.Assigned > 0 {
			record.Assignments = append(record.Assignments, model.AssignmentRecord{
				AssetID: slot.Asset.ID(),
				Count:   slot.Assigned,
			})
		}
	}
	return record
}

// FromRecord rebuilds a settlement from its persistence record, revalidating
// every construction invariant and replaying stored assignments through the
// normal transition path.
func FromRecord(record model.SettlementRecord) (Settlement, error) {
	baseYields, err := yieldsFromRecords(record.BaseYields)
	if err != nil {
		return Settlement{}, fmt.Errorf("base yields: %w", err)
	}
	perWorker, err := yieldsFromRecords(record.PerWorkerYields)
	if err != nil {
		return Settlement{}, fmt.Errorf("per-worker yields: %w", err)
	}

	assets := make([]Asset, 0, len(record.Assets))
	for _, assetRecord := range record.Assets {
		asset, err := assetFromRecord(assetRecord)
		if err != nil {
			return Settlement{}, err
		}
		assets = append(assets, asset)
	}

	s, err := New(baseYields, perWorker, assets, record.Size)
	if err != nil {
		return Settlement{}, err
	}

	for _, assignment := range record.Assignments {
		for i := 0; i < assignment.Count; i++ {
			s, err = s.Assign(assignment.AssetID)
			if err != nil {
				return Settlement{}, fmt.Errorf("replay assignment: %w", err)
			}
		}
	}
	return s, nil
}

func assetToRecord(asset Asset) model.AssetRecord {
	record := model.AssetRecord{
		ID:     asset.ID(),
		Kind:   asset.Kind().String(),
		Yields: yieldsToRecords(asset.Yields()),
	}
	if asset.Kind() == KindBuilding {
		record.Capacity = asset.Capacity()
	}
	return record
}

func assetFromRecord(record model.AssetRecord) (Asset, error) {
	yields, err := yieldsFromRecords(record.Yields)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %s: %w", record.ID, err)
	}
	switch record.Kind {
	case KindTile.String():
		return NewTile(record.ID, yields), nil
	case KindBuilding.String():
		return NewBuilding(record.ID, record.Capacity, yields)
	default:
		return Asset{}, fmt.Errorf("asset %s: unknown kind %q", record.ID, record.Kind)
	}
}

func yieldsToRecords(values []economy.Value) []model.YieldRecord {
	out := make([]model.YieldRecord, 0, len(values))
	for _, value := range values {
		out = append(out, model.YieldRecord{Category: string(value.Category), Amount: value.Amount})
	}
	return out
}

func yieldsFromRecords(records []model.YieldRecord) ([]economy.Value, error) {
	out := make([]economy.Value, 0, len(records))
	for _, record := range records {
		value, err := economy.New(economy.Category(record.Category), record.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}
