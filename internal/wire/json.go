package wire

// #region imports
import (
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/mat"
)

// #endregion

// #region json-matrix

// DecodeJSONMatrix parses the JSON fallback encoding: a square array
// of arrays of numbers. JSON cannot carry NaN, so null entries stand
// in for missing values and decode to NaN.
func DecodeJSONMatrix(payload []byte) (*mat.Dense, error) {
	var rows [][]*float64
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, decodeErrorf("payload is not a JSON matrix: %v", err)
	}
	n := len(rows)
	if n == 0 {
		return nil, decodeErrorf("empty JSON matrix")
	}
	m := mat.NewDense(n, n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, decodeErrorf("row %d has %d columns, want %d (square)", i, len(row), n)
		}
		for j, v := range row {
			if v == nil {
				m.Set(i, j, math.NaN())
				continue
			}
			m.Set(i, j, *v)
		}
	}
	return m, nil
}

// #endregion json-matrix
