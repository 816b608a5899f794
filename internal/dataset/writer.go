package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"fan-insights-go/internal/types"
)

// WriteWorkbook writes the three handoff tables as sheets of one workbook:
// features keyed by (fan, stage), embeddings and cluster assignments keyed by
// (fan, stage, method). Report generation reads only this file.
func WriteWorkbook(path string, features []types.FeatureVector, embeddings []types.EmbeddingVector, assignments []types.ClusterAssignment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeFeatureSheet(f, features); err != nil {
		return err
	}
	if err := writeEmbeddingSheet(f, embeddings); err != nil {
		return err
	}
	if err := writeAssignmentSheet(f, assignments); err != nil {
		return err
	}

	// drop the default sheet excelize creates
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeFeatureSheet(f *excelize.File, features []types.FeatureVector) error {
	const sheet = "features"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := append([]string{"fan_creator_id", "stage"}, types.FeatureColumns()...)
	if err := setRow(f, sheet, 1, toAny(header)); err != nil {
		return err
	}
	for i, fv := range features {
		row := []any{fv.FanCreatorID, int(fv.Stage)}
		for _, v := range fv.Values() {
			row = append(row, v)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeEmbeddingSheet(f *excelize.File, embeddings []types.EmbeddingVector) error {
	const sheet = "embeddings"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{"fan_creator_id", "stage", "method", "profile_missing", "dim", "vector"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, emb := range embeddings {
		// vectors go into one JSON cell; a 1536-wide float sheet is unusable
		vec, err := json.Marshal(emb.Vector)
		if err != nil {
			return fmt.Errorf("marshal vector: %w", err)
		}
		row := []any{emb.FanCreatorID, int(emb.Stage), string(emb.Method), emb.ProfileMissing, len(emb.Vector), string(vec)}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeAssignmentSheet(f *excelize.File, assignments []types.ClusterAssignment) error {
	const sheet = "clusters"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	header := []any{"fan_creator_id", "stage", "method", "cluster", "x", "y", "z"}
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, a := range assignments {
		row := []any{a.FanCreatorID, int(a.Stage), string(a.Method), a.Label, a.X, a.Y, a.Z}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	return f.SetSheetRow(sheet, "A"+strconv.Itoa(row), &values)
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
