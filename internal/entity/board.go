package entity

import (
	"fmt"

	"github.com/rocketscienceinc/dotsandboxes-backend/internal/apperror"
)

const DefaultBoardSize = 5

type LineType string

const (
	LineHorizontal LineType = "horizontal"
	LineVertical   LineType = "vertical"
)

func (that LineType) IsValid() bool {
	return that == LineHorizontal || that == LineVertical
}

// Line addresses one edge by its flat index in the array of its type.
type Line struct {
	Type  LineType `json:"type"`
	Index int      `json:"index"`
}

// Board is a Size x Size grid of boxes.
//
// Horizontal lines are stored row by row with a stride of Size+1, so the
// array holds Size+1 rows and the last slot of every row is never a line.
// Vertical lines are stored column by column, Size per column.
type Board struct {
	Size            int     `json:"size"`
	HorizontalLines []bool  `json:"horizontal_lines"`
	VerticalLines   []bool  `json:"vertical_lines"`
	Boxes           []Color `json:"boxes"`
}

func NewBoard(size int) *Board {
	if size <= 0 {
		size = DefaultBoardSize
	}

	return &Board{
		Size:            size,
		HorizontalLines: make([]bool, (size+1)*(size+1)),
		VerticalLines:   make([]bool, (size+1)*size),
		Boxes:           make([]Color, size*size),
	}
}

// ApplyMove draws the line and claims for color every adjacent box that it
// closes. It returns the number of boxes claimed.
func (that *Board) ApplyMove(color Color, lineType LineType, index int) (int, error) {
	lines, err := that.lines(lineType)
	if err != nil {
		return 0, err
	}

	if !that.isLine(lineType, index, len(lines)) {
		return 0, fmt.Errorf("%w: %s line %d", apperror.ErrInvalidLine, lineType, index)
	}

	if lines[index] {
		return 0, apperror.ErrLineAlreadyDrawn
	}

	lines[index] = true

	completed := 0
	for _, box := range that.adjacentBoxes(lineType, index) {
		boxIndex := box[0]*that.Size + box[1]
		if that.Boxes[boxIndex] != ColorNone {
			continue
		}

		if that.isBoxClosed(box[0], box[1]) {
			that.Boxes[boxIndex] = color
			completed++
		}
	}

	return completed, nil
}

// IsDrawn reports whether the line exists and has been drawn.
func (that *Board) IsDrawn(lineType LineType, index int) bool {
	lines, err := that.lines(lineType)
	if err != nil || !that.isLine(lineType, index, len(lines)) {
		return false
	}

	return lines[index]
}

// IsComplete reports whether every box has been claimed.
func (that *Board) IsComplete() bool {
	for _, owner := range that.Boxes {
		if owner == ColorNone {
			return false
		}
	}

	return true
}

func (that *Board) ClaimedBy(color Color) int {
	count := 0
	for _, owner := range that.Boxes {
		if owner == color {
			count++
		}
	}

	return count
}

func (that *Board) Clone() *Board {
	return &Board{
		Size:            that.Size,
		HorizontalLines: append([]bool(nil), that.HorizontalLines...),
		VerticalLines:   append([]bool(nil), that.VerticalLines...),
		Boxes:           append([]Color(nil), that.Boxes...),
	}
}

// LineCount is the number of drawable lines on the board.
func (that *Board) LineCount() int {
	return 2 * that.Size * (that.Size + 1)
}

func (that *Board) isLine(lineType LineType, index, length int) bool {
	if index < 0 || index >= length {
		return false
	}

	return lineType != LineHorizontal || index%(that.Size+1) < that.Size
}

func (that *Board) lines(lineType LineType) ([]bool, error) {
	switch lineType {
	case LineHorizontal:
		return that.HorizontalLines, nil
	case LineVertical:
		return that.VerticalLines, nil
	default:
		return nil, fmt.Errorf("%w: unknown line type %q", apperror.ErrInvalidLine, lineType)
	}
}

// adjacentBoxes returns the (row, col) pairs of the boxes bordered by a line.
func (that *Board) adjacentBoxes(lineType LineType, index int) [][2]int {
	size := that.Size
	boxes := make([][2]int, 0, 2)

	if lineType == LineHorizontal {
		row, col := index/(size+1), index%(size+1)
		if row > 0 && col < size {
			boxes = append(boxes, [2]int{row - 1, col})
		}

		if row < size && col < size {
			boxes = append(boxes, [2]int{row, col})
		}

		return boxes
	}

	col, row := index/size, index%size
	if col > 0 {
		boxes = append(boxes, [2]int{row, col - 1})
	}

	if col < size {
		boxes = append(boxes, [2]int{row, col})
	}

	return boxes
}

func (that *Board) isBoxClosed(row, col int) bool {
	size := that.Size

	top := that.HorizontalLines[row*(size+1)+col]
	bottom := that.HorizontalLines[(row+1)*(size+1)+col]
	left := that.VerticalLines[col*size+row]
	right := that.VerticalLines[(col+1)*size+row]

	return top && bottom && left && right
}
