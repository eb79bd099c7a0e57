package storage

import (
	"encoding/json"
	"errors"

	"tensordep/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// CurrentVersion stamps new records.
func CurrentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRegistry(r model.RegistrySnapshot) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRegistry(data []byte) (model.RegistrySnapshot, error) {
	var registry model.RegistrySnapshot
	if err := json.Unmarshal(data, &registry); err != nil {
		return model.RegistrySnapshot{}, err
	}
	if err := checkVersion(registry.VersionedRecord); err != nil {
		return model.RegistrySnapshot{}, err
	}
	return registry, nil
}

func EncodeActivation(a model.ActivationSnapshot) ([]byte, error) {
	return json.Marshal(a)
}

func DecodeActivation(data []byte) (model.ActivationSnapshot, error) {
	var activation model.ActivationSnapshot
	if err := json.Unmarshal(data, &activation); err != nil {
		return model.ActivationSnapshot{}, err
	}
	if err := checkVersion(activation.VersionedRecord); err != nil {
		return model.ActivationSnapshot{}, err
	}
	return activation, nil
}

func EncodeTensor(t model.TensorSnapshot) ([]byte, error) {
	return json.Marshal(t)
}

func DecodeTensor(data []byte) (model.TensorSnapshot, error) {
	var tensor model.TensorSnapshot
	if err := json.Unmarshal(data, &tensor); err != nil {
		return model.TensorSnapshot{}, err
	}
	if err := checkVersion(tensor.VersionedRecord); err != nil {
		return model.TensorSnapshot{}, err
	}
	return tensor, nil
}

func EncodeRun(r model.RunSummary) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunSummary, error) {
	var run model.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return run, nil
}

// EncodeBundle and DecodeBundle carry the uncompressed snapshot file body.
// Nested records are checked as well.
func EncodeBundle(b model.Bundle) ([]byte, error) {
	return json.Marshal(b)
}

func DecodeBundle(data []byte) (model.Bundle, error) {
	var bundle model.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return model.Bundle{}, err
	}
	records := []model.VersionedRecord{bundle.VersionedRecord, bundle.Registry.VersionedRecord}
	if bundle.Activation != nil {
		records = append(records, bundle.Activation.VersionedRecord)
	}
	if bundle.Tensor != nil {
		records = append(records, bundle.Tensor.VersionedRecord)
	}
	for _, v := range records {
		if err := checkVersion(v); err != nil {
			return model.Bundle{}, err
		}
	}
	return bundle, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
