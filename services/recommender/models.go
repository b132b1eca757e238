package recommender

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Model artifact file names inside the model directory
const (
	ClassifierFile    = "rf_model.bin"
	SequenceModelFile = "lstm_model.bin"
	ScalerFile        = "lstm_scaler.json"
)

// ScalerParams holds the min-max scaler parameters used when the sequence
// model was trained
type ScalerParams struct {
	Min     float64 `json:"min"`
	Scale   float64 `json:"scale"`
	DataMax float64 `json:"data_max"`
}

// ModelBundle holds the trained artifacts produced offline. A bundle is
// either fully populated or not available at all; partial availability is
// reported as total unavailability.
type ModelBundle struct {
	Classifier    []byte
	SequenceModel []byte
	Scaler        ScalerParams
}

// BundleLoader loads a model bundle, reporting unavailability as nil
type BundleLoader interface {
	Load() *ModelBundle
}

// FileBundleLoader loads model artifacts from a directory on disk
type FileBundleLoader struct {
	Dir string
}

// NewFileBundleLoader creates a loader rooted at dir
func NewFileBundleLoader(dir string) *FileBundleLoader {
	return &FileBundleLoader{Dir: dir}
}

// Load attempts to read all three artifacts. Any missing or corrupt file
// makes the whole bundle unavailable; the cause is logged and nil returned,
// never an error.
func (l *FileBundleLoader) Load() *ModelBundle {
	classifier, err := readArtifact(filepath.Join(l.Dir, ClassifierFile))
	if err != nil {
		log.Printf("Model loading failed: %v", err)
		return nil
	}

	sequenceModel, err := readArtifact(filepath.Join(l.Dir, SequenceModelFile))
	if err != nil {
		log.Printf("Model loading failed: %v", err)
		return nil
	}

	scalerData, err := readArtifact(filepath.Join(l.Dir, ScalerFile))
	if err != nil {
		log.Printf("Model loading failed: %v", err)
		return nil
	}

	var scaler ScalerParams
	if err := json.Unmarshal(scalerData, &scaler); err != nil {
		log.Printf("Model loading failed: corrupt scaler parameters: %v", err)
		return nil
	}
	if scaler.DataMax != 0 && scaler.Scale == 0 {
		scaler.Scale = 1 / scaler.DataMax
	}

	return &ModelBundle{
		Classifier:    classifier,
		SequenceModel: sequenceModel,
		Scaler:        scaler,
	}
}

// readArtifact reads one artifact file, rejecting empty files as corrupt
func readArtifact(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("artifact %s is empty", path)
	}
	return data, nil
}
