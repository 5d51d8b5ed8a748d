package streamio

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/topfang/internal/workload"
	"github.com/Sumatoshi-tech/topfang/pkg/alg/mapx"
)

// SummaryRecord is the YAML form of one window's ground truth.
type SummaryRecord struct {
	Distribution string           `yaml:"distribution"`
	Counts       map[string]int64 `yaml:"counts"`
	NHint        int              `yaml:"n_hint"`
}

// Dataset is a fully loaded dataset: manifest, streams, and ground truth.
type Dataset struct {
	Manifest  Manifest
	Windows   []WindowRecord
	Summaries []SummaryRecord
}

// WriteDataset persists a generated dataset under dir as three files named
// after the manifest: the compressed stream, the YAML summaries, and the
// manifest itself.
func WriteDataset(dir string, m Manifest, ds *workload.Dataset) error {
	mkdirErr := os.MkdirAll(dir, 0o755)
	if mkdirErr != nil {
		return fmt.Errorf("create dataset dir: %w", mkdirErr)
	}

	m.StreamFile = m.Name + StreamSuffix
	m.SummaryFile = m.Name + SummarySuffix

	windows := make([]WindowRecord, 0, len(ds.Streams))
	for _, stream := range ds.Streams {
		windows = append(windows, toWindowRecord(stream))
	}

	streamErr := WriteStream(filepath.Join(dir, m.StreamFile), windows)
	if streamErr != nil {
		return streamErr
	}

	summaries := make([]SummaryRecord, 0, len(ds.Summaries))
	for _, s := range ds.Summaries {
		summaries = append(summaries, SummaryRecord{
			Distribution: s.Distribution,
			Counts:       s.Counts,
			NHint:        s.NHint,
		})
	}

	data, err := yaml.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("marshal summaries: %w", err)
	}

	writeErr := os.WriteFile(filepath.Join(dir, m.SummaryFile), data, 0o644)
	if writeErr != nil {
		return fmt.Errorf("write summaries: %w", writeErr)
	}

	return WriteManifest(filepath.Join(dir, m.Name+ManifestSuffix), m)
}

// LoadDataset loads a dataset given the path of its manifest file.
func LoadDataset(manifestPath string) (*Dataset, error) {
	m, err := ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(manifestPath)

	windows, err := ReadStream(filepath.Join(dir, m.StreamFile))
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, m.SummaryFile))
	if err != nil {
		return nil, fmt.Errorf("read summaries: %w", err)
	}

	var summaries []SummaryRecord

	unmarshalErr := yaml.Unmarshal(data, &summaries)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal summaries: %w", unmarshalErr)
	}

	return &Dataset{Manifest: m, Windows: windows, Summaries: summaries}, nil
}

// toWindowRecord converts an in-memory window stream to its wire form with
// partitions in ascending id order.
func toWindowRecord(stream workload.WindowStream) WindowRecord {
	rec := WindowRecord{
		Window:     stream.ID,
		Partitions: make([]PartitionRecord, 0, len(stream.Partitions)),
	}

	for _, pid := range mapx.SortedKeys(stream.Partitions) {
		rec.Partitions = append(rec.Partitions, PartitionRecord{
			ID:    pid,
			Items: stream.Partitions[pid],
		})
	}

	return rec
}

// ToWindow converts a wire record back to a topn processing window's
// partition map form.
func (w WindowRecord) ToWindow() map[int][]string {
	partitions := make(map[int][]string, len(w.Partitions))
	for _, p := range w.Partitions {
		partitions[p.ID] = p.Items
	}

	return partitions
}
