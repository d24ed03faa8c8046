package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/tarstars/soft_cascade/golang/soft_cascade/scl"
)

//decodeConfig reads a JSON config, or a YAML one when the file has a .yaml or .yml extension.
func decodeConfig(srcConfig string, out interface{}) error {
	file, err := os.Open(srcConfig)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(srcConfig)) {
	case ".yaml", ".yml":
		return yaml.NewDecoder(file).Decode(out)
	default:
		return json.NewDecoder(file).Decode(out)
	}
}

type TrainConfig struct {
	Description        string         `json:"description" yaml:"description"`
	FileNameNegatives  string         `json:"filename_negatives" yaml:"filename_negatives"`
	FileNamePositives  string         `json:"filename_positives" yaml:"filename_positives"`
	FileNameNegWeights string         `json:"filename_neg_weights" yaml:"filename_neg_weights"`
	FileNamePosWeights string         `json:"filename_pos_weights" yaml:"filename_pos_weights"`
	FileNameModel      string         `json:"filename_model" yaml:"filename_model"`
	NWeaks             []int          `json:"n_weaks" yaml:"n_weaks"`
	Tree               scl.TreeParams `json:"tree" yaml:"tree"`
	Mode               string         `json:"mode" yaml:"mode"`
}

type PredictConfig struct {
	FeaturesFileName   string `json:"filename_features" yaml:"filename_features"`
	ModelFileName      string `json:"filename_model" yaml:"filename_model"`
	PredictionFileName string `json:"filename_scores" yaml:"filename_scores"`
	ThreadsNum         int    `json:"threads_num" yaml:"threads_num"`
}

type LcurveConfig struct {
	FileNameNegatives     string `json:"filename_negatives" yaml:"filename_negatives"`
	FileNamePositives     string `json:"filename_positives" yaml:"filename_positives"`
	ModelFileName         string `json:"filename_model" yaml:"filename_model"`
	LearningCurveFileName string `json:"filename_learning_curve" yaml:"filename_learning_curve"`
}

type GraphConfig struct {
	ModelFileName     string `json:"filename_model" yaml:"filename_model"`
	FigureType        string `json:"figure_type" yaml:"figure_type"`
	PicturesDirectory string `json:"pictures_directory" yaml:"pictures_directory"`
	DumpPrefix        string `json:"dump_prefix" yaml:"dump_prefix"`
}

type ExportConfig struct {
	ModelFileName string `json:"filename_model" yaml:"filename_model"`
	Directory     string `json:"directory" yaml:"directory"`
}

type HistogramConfig struct {
	FileNameNegatives string `json:"filename_negatives" yaml:"filename_negatives"`
	FileNamePositives string `json:"filename_positives" yaml:"filename_positives"`
	ModelFileName     string `json:"filename_model" yaml:"filename_model"`
	PlotFileName      string `json:"filename_plot" yaml:"filename_plot"`
	NBins             int    `json:"n_bins" yaml:"n_bins"`
	ThreadsNum        int    `json:"threads_num" yaml:"threads_num"`
}

type ServeConfig struct {
	ModelFileName string `json:"filename_model" yaml:"filename_model"`
	Address       string `json:"address" yaml:"address"`
	ThreadsNum    int    `json:"threads_num" yaml:"threads_num"`
}

//loadCascade reads a JSON model file or a directory written by the export mode.
func loadCascade(modelPath string) (*scl.Cascade, error) {
	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return scl.LoadNpy(modelPath)
	}
	return scl.LoadModel(modelPath)
}
