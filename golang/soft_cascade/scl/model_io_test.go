package scl

import (
	"errors"
	"os"
	"path"
	"reflect"
	"testing"
)

func TestSaveLoadModel(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 3)
	cascade.Mode = ScoreLabel
	filename := path.Join(t.TempDir(), "model.json")

	if err := cascade.SaveModel(filename); err != nil {
		t.Fatalf("SaveModel: %v", err)
	}
	loaded, err := LoadModel(filename)
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if !reflect.DeepEqual(cascade, loaded) {
		t.Fatalf("loaded model differs from the saved one")
	}
}

func TestLoadModelRejectsEmptyCascade(t *testing.T) {
	filename := path.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(filename, []byte(`{"trees": []}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadModel(filename); !errors.Is(err, ErrState) {
		t.Fatalf("expected a state error, got %v", err)
	}
}

func TestTableRoundTrip(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 4)
	table := cascade.Table()
	if table.NTrees != 4 || len(table.Nodes) != 4 {
		t.Fatalf("unexpected table header %d %v", table.NTrees, table.Nodes)
	}

	rebuilt, err := CascadeFromTable(table)
	if err != nil {
		t.Fatalf("CascadeFromTable: %v", err)
	}
	if !reflect.DeepEqual(table, rebuilt.Table()) {
		t.Fatalf("table changed after the round trip")
	}

	features := randomFeatures(5, 5, 25)
	expected := make([]float64, 25)
	actual := make([]float64, 25)
	if err := cascade.Apply(features, expected); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := rebuilt.Apply(features, actual); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("rebuilt cascade scores differently")
	}

	table.Hs = table.Hs[1:]
	if _, err := CascadeFromTable(table); !errors.Is(err, ErrData) {
		t.Fatalf("short column should be a data error, got %v", err)
	}
}

func TestSaveLoadNpy(t *testing.T) {
	cascade, _ := CreateTestCascade(t, 2)
	dir := path.Join(t.TempDir(), "model")

	if err := cascade.SaveNpy(dir); err != nil {
		t.Fatalf("SaveNpy: %v", err)
	}
	loaded, err := LoadNpy(dir)
	if err != nil {
		t.Fatalf("LoadNpy: %v", err)
	}
	if !reflect.DeepEqual(cascade.Table(), loaded.Table()) {
		t.Fatalf("loaded table differs from the saved one")
	}

	if err := (&Cascade{}).SaveNpy(dir); !errors.Is(err, ErrState) {
		t.Fatalf("an empty cascade should not be saved, got %v", err)
	}
}
