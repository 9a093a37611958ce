package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cardfetch/internal"
)

func TestExportCSVToXLSX(t *testing.T) {
	tmp := t.TempDir()
	csvPath := filepath.Join(tmp, "cards.csv")
	sink := NewCSVSink(csvPath, internal.VariantB)
	n := NewNormalizer(internal.VariantB)
	require.NoError(t, sink.Append(n.Normalize(internal.RawCard{"name": "Dark Magician", "atk": float64(2500), "humanReadableCardType": "Normal Monster"}, "1")))
	require.NoError(t, sink.Append(n.Normalize(internal.RawCard{"name": "Raigeki", "humanReadableCardType": "Normal Spell"}, "2")))

	out := filepath.Join(tmp, "export", "cards.xlsx")
	count, err := ExportCSVToXLSX(csvPath, out)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "id", rows[0][0])
	require.Equal(t, "Dark Magician", rows[1][2])
	require.Equal(t, "2500", rows[1][7])
	require.Equal(t, "-1", rows[2][7])
	require.Equal(t, IconNormal, rows[2][len(rows[2])-1])
}

func TestExportCSVToXLSXMissingInput(t *testing.T) {
	_, err := ExportCSVToXLSX(filepath.Join(t.TempDir(), "nope.csv"), filepath.Join(t.TempDir(), "x.xlsx"))
	require.Error(t, err)
}

func TestExportRowsToCSVRoundTripsAsInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "retry", "failed.csv")
	rows := []internal.InputRow{
		{LineNo: 2, ExternalID: "7", Name: "Nonexistent"},
		{LineNo: 5, Name: "Typo, Card"},
	}
	require.NoError(t, ExportRowsToCSV(rows, out))

	_, err := os.Stat(out)
	require.NoError(t, err)

	back, err := ReadInputRows(out)
	require.NoError(t, err)
	require.Equal(t, []internal.InputRow{
		{LineNo: 1, ExternalID: "7", Name: "Nonexistent"},
		{LineNo: 2, Name: "Typo, Card"},
	}, back)
}
