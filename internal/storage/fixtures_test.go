package storage

import "tensordep/internal/model"

func sampleRegistry(id string) model.RegistrySnapshot {
	return model.RegistrySnapshot{
		VersionedRecord:  CurrentVersion(),
		ID:               id,
		CreatedAtUTC:     "2026-01-02T03:04:05Z",
		Topology:         "hierarchical",
		ArcSpaceSize:     1 << 20,
		LabeledSpaceSize: 1 << 19,
		Widths:           model.CodecWidths{TagNumBits: 6, WordNumBits: 10, DepNumBits: 4, FlagBits: 8, NumArcFeatBits: 6},
		Instances:        2,
		Codes:            []model.CodeRecord{{Code: 17, Spaces: 1}, {Code: -42, Spaces: 2}},
	}
}

func sampleActivation(registryID string) model.ActivationSnapshot {
	return model.ActivationSnapshot{
		VersionedRecord: CurrentVersion(),
		RegistryID:      registryID,
		Nodes:           map[string][]int{"root": {}, "root/head": {0, 5, 8}},
	}
}

func sampleTensor(id, registryID string) model.TensorSnapshot {
	return model.TensorSnapshot{
		VersionedRecord: CurrentVersion(),
		ID:              id,
		RegistryID:      registryID,
		Topology:        "threeway",
		Modes:           4,
		Cells: []model.TensorCell{
			{Coords: []int{0, 1, -1, 2}, Value: 0.5},
			{Coords: []int{3, 0, 0, 0}, Value: -1.25},
		},
	}
}

func sampleRun(runID, createdAt string) model.RunSummary {
	return model.RunSummary{
		VersionedRecord: CurrentVersion(),
		RunID:           runID,
		RegistryID:      "reg-1",
		TensorID:        "ten-1",
		Topology:        "threeway",
		CreatedAtUTC:    createdAt,
		Codes:           10,
		Written:         7,
		Pruned:          2,
		Skipped:         1,
	}
}
