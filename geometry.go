package img2txt

// Output grid floors. They protect against degenerate near-zero
// grids at very low detail levels or extreme aspect ratios.
const (
	MinCols = 20
	MinRows = 15
)

// PlanDimensions computes the target (cols, rows) for a source of the
// given pixel dimensions, preserving the source aspect ratio as
// closely as integer rounding allows. The caps are scaled by the
// detail level, then the aspect ratio decides whether width or height
// is the binding constraint. Source dimensions must be positive; the
// enclosing pipeline rejects non-positive sources before calling.
func PlanDimensions(srcWidth, srcHeight int, detail float64, maxCols, maxRows int) (cols, rows int) {
	aspect := float64(srcWidth) / float64(srcHeight)

	baseCols := int(float64(maxCols) * detail)
	baseRows := int(float64(maxRows) * detail)

	if float64(baseCols)/aspect <= float64(baseRows) {
		cols = baseCols
		rows = int(float64(baseCols) / aspect)
	} else {
		rows = baseRows
		cols = int(float64(baseRows) * aspect)
	}

	if cols < MinCols {
		cols = MinCols
	}
	if rows < MinRows {
		rows = MinRows
	}
	return cols, rows
}
